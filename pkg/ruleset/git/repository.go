package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"mercator-hq/matchgram/pkg/config"
)

// ErrNotCloned is returned by operations that need a local clone.
var ErrNotCloned = errors.New("repository not initialized, call Clone() first")

// CommitInfo describes a commit.
type CommitInfo struct {
	SHA       string    `json:"sha"`
	Author    string    `json:"author"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Branch    string    `json:"branch"`
}

// Short returns the abbreviated SHA.
func (c *CommitInfo) Short() string {
	return shortSHA(c.SHA)
}

// PullResult is the outcome of a Pull.
type PullResult struct {
	FromSHA      string
	ToSHA        string
	ChangedFiles []string
}

// HadChanges reports whether HEAD moved.
func (p *PullResult) HadChanges() bool {
	return p.FromSHA != p.ToSHA
}

// Repository is a local clone of a git-hosted rule repository.
type Repository struct {
	cfg  config.GitConfig
	auth AuthProvider

	mu   sync.RWMutex
	repo *gogit.Repository
}

// NewRepository validates cfg and prepares a repository. Nothing is cloned
// until Clone is called.
func NewRepository(cfg config.GitConfig) (*Repository, error) {
	if cfg.Repository == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, fmt.Errorf("branch cannot be empty")
	}
	if cfg.LocalPath == "" {
		cfg.LocalPath = filepath.Join(os.TempDir(), config.DefaultGitLocalPathName)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultGitTimeout
	}

	auth, err := NewAuthProvider(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth provider: %w", err)
	}
	return &Repository{cfg: cfg, auth: auth}, nil
}

// Clone clones the repository into the local path, or opens an existing
// clone found there.
func (r *Repository) Clone(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(filepath.Join(r.cfg.LocalPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(r.cfg.LocalPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo: %w", err)
		}
		r.repo = repo
		return nil
	}

	if err := os.MkdirAll(r.cfg.LocalPath, 0o755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}

	auth, err := r.auth.Auth()
	if err != nil {
		return fmt.Errorf("failed to get auth: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	repo, err := gogit.PlainCloneContext(ctx, r.cfg.LocalPath, false, &gogit.CloneOptions{
		URL:           r.cfg.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Branch),
		SingleBranch:  true,
		Depth:         r.cfg.Depth,
		Auth:          auth,
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	r.repo = repo
	return nil
}

// Pull fetches and merges the tracked branch. Only fast-forwards are
// accepted; the local clone is never force-updated.
func (r *Repository) Pull(ctx context.Context) (*PullResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return nil, ErrNotCloned
	}

	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	auth, err := r.auth.Auth()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	err = worktree.PullContext(ctx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Branch),
		SingleBranch:  true,
		Auth:          auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil, fmt.Errorf("failed to pull: %w", err)
	}

	newHead, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get new HEAD: %w", err)
	}

	result := &PullResult{FromSHA: head.Hash().String(), ToSHA: newHead.Hash().String()}
	if result.HadChanges() {
		result.ChangedFiles, err = r.changedFiles(head.Hash(), newHead.Hash())
		if err != nil {
			return nil, fmt.Errorf("failed to get changed files: %w", err)
		}
	}
	return result, nil
}

func (r *Repository) changedFiles(from, to plumbing.Hash) ([]string, error) {
	fromCommit, err := r.repo.CommitObject(from)
	if err != nil {
		return nil, fmt.Errorf("failed to get from commit: %w", err)
	}
	toCommit, err := r.repo.CommitObject(to)
	if err != nil {
		return nil, fmt.Errorf("failed to get to commit: %w", err)
	}
	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get from tree: %w", err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get to tree: %w", err)
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	files := make([]string, 0, len(changes))
	for _, change := range changes {
		// Deleted files only have a From side.
		if change.To.Name != "" {
			files = append(files, change.To.Name)
		} else {
			files = append(files, change.From.Name)
		}
	}
	return files, nil
}

// Head returns the commit the local clone is at.
func (r *Repository) Head() (*CommitInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.repo == nil {
		return nil, ErrNotCloned
	}
	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}
	return &CommitInfo{
		SHA:       commit.Hash.String(),
		Author:    commit.Author.Name,
		Email:     commit.Author.Email,
		Timestamp: commit.Author.When,
		Message:   commit.Message,
		Branch:    r.cfg.Branch,
	}, nil
}

// RulesPath returns the directory inside the clone that holds rule files.
func (r *Repository) RulesPath() string {
	return filepath.Join(r.cfg.LocalPath, r.cfg.Path)
}

// AuthType names the configured authentication method.
func (r *Repository) AuthType() string {
	return r.auth.Type()
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
