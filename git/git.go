// Package git acquires the document corpus by cloning and updating a git
// checkout with the git command line tool.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/frmr"
	"golang.org/x/time/rate"
)

// Ensure Repository implements frmr.Repository at compile time.
var _ frmr.Repository = (*Repository)(nil)

// Defaults for the upstream corpus.
const (
	DefaultRemote        = "https://github.com/FedRAMP/docs"
	DefaultBranch        = "main"
	DefaultCheckInterval = 24 * time.Hour
)

// Repository is a local checkout of the corpus.
type Repository struct {
	Path   string
	Remote string
	Branch string

	// AllowClone permits cloning Remote into Path when Path is missing.
	AllowClone bool

	// AutoUpdate refreshes an existing checkout in EnsureReady when its
	// last fetch is older than CheckInterval.
	AutoUpdate    bool
	CheckInterval time.Duration

	// RetryDelays are the waits between clone attempts.
	RetryDelays []time.Duration

	// Limiter throttles Update. Nil means unlimited.
	Limiter *rate.Limiter

	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	mu    sync.Mutex
	ready bool
}

// NewRepository creates a Repository for path with the default remote,
// branch and update policy. Updates are limited to one per minute.
func NewRepository(path string) *Repository {
	return &Repository{
		Path:          path,
		Remote:        DefaultRemote,
		Branch:        DefaultBranch,
		AllowClone:    true,
		AutoUpdate:    true,
		CheckInterval: DefaultCheckInterval,
		RetryDelays:   DefaultRetryDelays(),
		Limiter:       rate.NewLimiter(rate.Every(time.Minute), 1),
	}
}

// DefaultPath returns ~/.cache/fedramp-docs.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cache", "fedramp-docs")
	}
	return filepath.Join(home, ".cache", "fedramp-docs")
}

// EnsureReady returns Path, cloning the corpus first when it is missing.
// An existing checkout is refreshed when auto update is on and the last
// fetch is stale; refresh failures are logged and ignored.
func (r *Repository) EnsureReady(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ready {
		return r.Path, nil
	}

	if _, err := os.Stat(r.Path); err == nil {
		if r.shouldUpdate() {
			if _, err := r.update(ctx); err != nil {
				r.logger().Warn("repository update failed", "path", r.Path, "err", err)
			}
		}
		r.ready = true
		return r.Path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", frmr.Errorf(frmr.EACQUISITION, "Failed to access FedRAMP docs repository at %s: %s", r.Path, err)
	}

	if !r.AllowClone {
		return "", frmr.Errorf(frmr.EACQUISITION, "FedRAMP docs repository not found locally and auto clone is disabled.").
			WithHint("Set FEDRAMP_DOCS_PATH to a local clone or enable FEDRAMP_DOCS_ALLOW_AUTO_CLONE=1.")
	}

	if err := r.clone(ctx); err != nil {
		return "", frmr.Errorf(frmr.EACQUISITION, "Failed to clone FedRAMP docs repository: %s", err).
			WithHint("Check network connectivity or set FEDRAMP_DOCS_PATH to an existing local checkout.")
	}

	r.ready = true
	return r.Path, nil
}

func (r *Repository) clone(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(r.Path), 0755); err != nil {
		return err
	}

	return Retry(ctx, r.RetryDelays, r.logger(), func(ctx context.Context) error {
		// A failed attempt may leave a partial checkout behind.
		if err := os.RemoveAll(r.Path); err != nil {
			return err
		}
		_, err := run(ctx, "", "clone", "--depth", "1", "--branch", r.branch(), r.Remote, r.Path)
		return err
	})
}

// HeadRevision returns the commit hash of HEAD, or an empty string when
// Path is not a git checkout.
func (r *Repository) HeadRevision(ctx context.Context) (string, error) {
	out, err := run(ctx, r.Path, "rev-parse", "HEAD")
	if err != nil {
		return "", nil
	}
	return out, nil
}

// Info describes the checkout. Commit fields are left empty when Path is
// not a git checkout.
func (r *Repository) Info(ctx context.Context) (*frmr.RepoInfo, error) {
	info := &frmr.RepoInfo{
		Path:          r.Path,
		Remote:        r.Remote,
		Branch:        r.branch(),
		AutoUpdate:    r.AutoUpdate,
		CheckInterval: r.checkInterval().String(),
	}

	if out, err := run(ctx, r.Path, "log", "-1", "--format=%H%n%cI"); err == nil {
		if hash, date, ok := strings.Cut(out, "\n"); ok {
			info.CommitHash = shortHash(hash)
			info.CommitDate = date
		}
	}

	if fi, err := os.Stat(r.fetchHeadPath()); err == nil {
		fetched := fi.ModTime().UTC()
		info.LastFetchedAt = &fetched
	}

	return info, nil
}

// Update fetches the configured branch and hard resets the checkout to
// it. Failures are reported in the result rather than returned.
func (r *Repository) Update(ctx context.Context) (*frmr.UpdateResult, error) {
	if r.Limiter != nil && !r.Limiter.Allow() {
		return &frmr.UpdateResult{
			Success: false,
			Message: "Repository update rate limited; try again later.",
		}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.update(ctx)
	if err != nil {
		return &frmr.UpdateResult{
			Success: false,
			Message: fmt.Sprintf("Failed to update repository: %s", err),
		}, nil
	}
	return res, nil
}

func (r *Repository) update(ctx context.Context) (*frmr.UpdateResult, error) {
	previous, _ := r.HeadRevision(ctx)

	if _, err := run(ctx, r.Path, "fetch", "origin", r.branch()); err != nil {
		return nil, err
	}
	if _, err := run(ctx, r.Path, "reset", "--hard", "origin/"+r.branch()); err != nil {
		return nil, err
	}

	current, _ := r.HeadRevision(ctx)
	r.logger().Info("repository updated", "path", r.Path, "previous", shortHash(previous), "current", shortHash(current))

	return &frmr.UpdateResult{
		Success:  true,
		Message:  fmt.Sprintf("Successfully updated repository at %s", r.Path),
		Previous: previous,
		Current:  current,
	}, nil
}

// shouldUpdate reports whether an existing checkout is due for a fetch.
func (r *Repository) shouldUpdate() bool {
	if !r.AutoUpdate {
		return false
	}
	if fi, err := os.Stat(filepath.Join(r.Path, ".git")); err != nil || !fi.IsDir() {
		return false
	}
	fi, err := os.Stat(r.fetchHeadPath())
	if err != nil {
		return true
	}
	return r.now().Sub(fi.ModTime()) >= r.checkInterval()
}

func (r *Repository) fetchHeadPath() string {
	return filepath.Join(r.Path, ".git", "FETCH_HEAD")
}

func (r *Repository) branch() string {
	if r.Branch != "" {
		return r.Branch
	}
	return DefaultBranch
}

func (r *Repository) checkInterval() time.Duration {
	if r.CheckInterval > 0 {
		return r.CheckInterval
	}
	return DefaultCheckInterval
}

func (r *Repository) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (r *Repository) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// run executes git with args in dir and returns its trimmed output.
func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
