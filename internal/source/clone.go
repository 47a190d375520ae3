package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/naka-gawa/pkg-rating/internal/shell"
)

// Cloner keeps shallow checkouts of repositories under one directory.
type Cloner struct {
	runner shell.Runner
	git    string
	dir    string
	logger *slog.Logger

	// inflight collapses concurrent clones into the same destination.
	inflight singleflight.Group
}

// NewCloner creates a new Cloner that checks repositories out under dir.
func NewCloner(runner shell.Runner, git, dir string, logger *slog.Logger) *Cloner {
	if git == "" {
		git = "git"
	}
	return &Cloner{runner: runner, git: git, dir: dir, logger: logger}
}

// Path returns where repo is checked out: <dir>/<owner>_<name>.
func (c *Cloner) Path(repo Repository) string {
	return filepath.Join(c.dir, repo.Owner+"_"+repo.Name)
}

// Clone makes a depth-1 clone of repo, reusing an existing checkout.
// Callers asking for the same repository at the same time share one clone.
func (c *Cloner) Clone(ctx context.Context, repo Repository) (string, error) {
	dest := c.Path(repo)
	_, err, shared := c.inflight.Do(dest, func() (any, error) {
		return nil, c.clone(ctx, repo, dest)
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug("shared checkout with a concurrent clone", "repo", repo.URL(), "path", dest)
	}
	return dest, nil
}

func (c *Cloner) clone(ctx context.Context, repo Repository, dest string) error {
	if info, err := os.Stat(filepath.Join(dest, ".git")); err == nil && info.IsDir() {
		c.logger.Info("reusing checkout", "repo", repo.URL(), "path", dest)
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}
	// A partial checkout from an interrupted clone would make git refuse the destination.
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("failed to clear %s: %w", dest, err)
	}
	if _, err := c.runner.Run(ctx, c.dir, c.git, "clone", "--depth", "1", repo.URL()+".git", dest); err != nil {
		return fmt.Errorf("failed to clone %s: %w", repo.URL(), err)
	}
	c.logger.Info("cloned repository", "repo", repo.URL(), "path", dest)
	return nil
}

// Source resolves and clones package URLs for the batch rater.
type Source struct {
	resolver *Resolver
	cloner   *Cloner
}

// New creates a new Source.
func New(resolver *Resolver, cloner *Cloner) *Source {
	return &Source{resolver: resolver, cloner: cloner}
}

// Prepare returns the GitHub URL and local checkout of rawURL.
func (s *Source) Prepare(ctx context.Context, rawURL string) (string, string, error) {
	repo, err := s.resolver.Resolve(ctx, rawURL)
	if err != nil {
		return "", "", err
	}
	path, err := s.cloner.Clone(ctx, repo)
	if err != nil {
		return "", "", err
	}
	return repo.URL(), path, nil
}
