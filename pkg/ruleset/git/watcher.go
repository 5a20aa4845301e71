package git

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mercator-hq/matchgram/pkg/ruleset"
	"mercator-hq/matchgram/pkg/telemetry/logging"
)

// Reloader loads rule sets from a path. *ruleset.Manager implements it.
type Reloader interface {
	ReloadFrom(ctx context.Context, path string) error
}

// Watcher polls a Repository and reloads rule sets when a rule file
// changes. A commit whose rules fail to load is skipped: the reloader keeps
// serving the last good rules and the next commit is tried on the next
// poll.
type Watcher struct {
	repo     *Repository
	reloader Reloader
	interval time.Duration
	logger   *logging.Logger

	mu       sync.RWMutex
	lastGood string
	lastErr  error
}

// NewWatcher creates a watcher polling every interval. logger may be nil.
func NewWatcher(repo *Repository, reloader Reloader, interval time.Duration, logger *logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watcher{
		repo:     repo,
		reloader: reloader,
		interval: interval,
		logger:   logger.Component("ruleset.git"),
	}
}

// Sync clones the repository if needed and loads the rules at HEAD.
func (w *Watcher) Sync(ctx context.Context) error {
	if err := w.repo.Clone(ctx); err != nil {
		return err
	}
	head, err := w.repo.Head()
	if err != nil {
		return err
	}
	if err := w.reloader.ReloadFrom(ctx, w.repo.RulesPath()); err != nil {
		w.setResult("", err)
		return fmt.Errorf("commit %s: %w", head.Short(), err)
	}
	w.setResult(head.SHA, nil)
	w.logger.Info("Rule repository synced",
		"commit", head.Short(),
		"branch", head.Branch,
		"auth", w.repo.AuthType(),
	)
	return nil
}

// Check pulls once and reloads if a rule file changed. It reports whether
// new rules were loaded.
func (w *Watcher) Check(ctx context.Context) (bool, error) {
	result, err := w.repo.Pull(ctx)
	if err != nil {
		return false, err
	}
	if !result.HadChanges() {
		return false, nil
	}

	if !hasRuleChanges(result.ChangedFiles) {
		w.logger.Debug("Non-rule files changed, skipping reload",
			"from", shortSHA(result.FromSHA),
			"to", shortSHA(result.ToSHA),
			"files", result.ChangedFiles,
		)
		return false, nil
	}

	if err := w.reloader.ReloadFrom(ctx, w.repo.RulesPath()); err != nil {
		w.setResult(w.LastGood(), err)
		w.logger.Error("Rules at new commit failed to load, keeping previous rules",
			"commit", shortSHA(result.ToSHA),
			"serving", shortSHA(w.LastGood()),
			"error", err,
		)
		return false, err
	}

	w.setResult(result.ToSHA, nil)
	w.logger.Info("Rules reloaded from repository",
		"from", shortSHA(result.FromSHA),
		"to", shortSHA(result.ToSHA),
		"changed_files", len(result.ChangedFiles),
	)
	return true, nil
}

// Run polls until ctx is cancelled. A non-positive interval disables
// polling and Run returns immediately.
func (w *Watcher) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil && ctx.Err() == nil {
				w.logger.Warn("Rule repository check failed", "error", err)
			}
		}
	}
}

// LastGood returns the commit the served rules were loaded from.
func (w *Watcher) LastGood() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastGood
}

// LastError returns the error of the most recent sync or reload, if any.
func (w *Watcher) LastError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}

func (w *Watcher) setResult(sha string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastGood = sha
	w.lastErr = err
}

func hasRuleChanges(files []string) bool {
	for _, f := range files {
		if ruleset.IsRuleFile(f) {
			return true
		}
	}
	return false
}
