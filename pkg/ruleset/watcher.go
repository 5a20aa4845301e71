package ruleset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/matchgram/pkg/telemetry/logging"
)

// DefaultDebounce is used when FileWatcherConfig.Debounce is zero.
const DefaultDebounce = 100 * time.Millisecond

// FileWatcherConfig configures a FileWatcher.
type FileWatcherConfig struct {
	// Path is a rule set file or directory.
	Path string

	// Debounce is the quiet period after the last event before reloading.
	Debounce time.Duration
}

// FileWatcher calls a reload function when rule set files change. Bursts of
// events, such as an editor's write-rename-chmod sequence, are coalesced
// into one reload.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
	config   FileWatcherConfig
	debounce *Debouncer
}

// NewFileWatcher creates a watcher. Call Close when done.
func NewFileWatcher(cfg FileWatcherConfig, logger *logging.Logger) (*FileWatcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.Discard()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  w,
		logger:   logger,
		config:   cfg,
		debounce: NewDebouncer(cfg.Debounce),
	}, nil
}

// Watch blocks until ctx is cancelled, calling onReload after changes.
func (fw *FileWatcher) Watch(ctx context.Context, onReload func() error) error {
	if err := fw.addPath(fw.config.Path); err != nil {
		return fmt.Errorf("failed to watch path: %w", err)
	}

	fw.logger.Info("File watcher started",
		"path", fw.config.Path,
		"debounce_ms", fw.config.Debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("File watcher stopped")
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}

			// New directories are watched as they appear.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fw.addDirectory(event.Name)
				}
			}
			if !fw.shouldProcess(event) {
				continue
			}

			fw.logger.Debug("File event detected", "path", event.Name, "op", event.Op.String())
			fw.debounce.Trigger(func() {
				fw.logger.Info("Reloading rule sets", "trigger", event.Name)
				if err := onReload(); err != nil {
					fw.logger.Error("Rule set reload failed", "error", err)
				}
			})

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			fw.logger.Error("File watcher error", "error", err)
		}
	}
}

// Close stops pending reloads and releases the watcher.
func (fw *FileWatcher) Close() error {
	fw.debounce.Stop()
	if err := fw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (fw *FileWatcher) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fw.addDirectory(path)
	}
	// Editors replace files by renaming, which drops a watch on the file
	// itself, so the parent directory is watched instead.
	return fw.watcher.Add(filepath.Dir(path))
}

func (fw *FileWatcher) addDirectory(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		return nil
	})
}

func (fw *FileWatcher) shouldProcess(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if !IsRuleFile(event.Name) {
		return false
	}
	// A single watched file only reacts to itself, not its siblings.
	if info, err := os.Stat(fw.config.Path); err == nil && !info.IsDir() {
		return filepath.Clean(event.Name) == filepath.Clean(fw.config.Path)
	}
	return true
}

// Debouncer runs the most recent callback once events stop arriving for
// the configured interval.
type Debouncer struct {
	interval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopped  bool
}

// NewDebouncer creates a debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules callback, replacing any pending one.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	cb := d.callback
	d.callback = nil
	stopped := d.stopped
	d.mu.Unlock()

	if cb != nil && !stopped {
		cb()
	}
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
