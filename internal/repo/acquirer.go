package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"arq-generator/internal/config"
	"arq-generator/internal/git/types"
)

// TempDirPrefix names every scratch checkout directory
const TempDirPrefix = "repo_analyze_"

// gitRunner runs git with args and returns its combined output
type gitRunner func(ctx context.Context, args ...string) ([]byte, error)

// Acquirer clones repositories into scratch directories and enforces the
// size ceiling. Inspectors, when preflight is enabled, are consulted before
// cloning.
type Acquirer struct {
	cloneTimeout time.Duration
	inspectors   []types.Inspector
	maxSizeMB    int
	preflight    bool
	runGit       gitRunner
}

// New creates an Acquirer from configuration. Inspectors are tried in order;
// the first one matching a URL answers for it.
func New(cfg *config.Config, inspectors ...types.Inspector) *Acquirer {
	gitBinary := cfg.GitBinary
	if gitBinary == "" {
		gitBinary = "git"
	}

	return &Acquirer{
		cloneTimeout: time.Duration(cfg.CloneTimeoutSeconds) * time.Second,
		inspectors:   inspectors,
		maxSizeMB:    cfg.MaxRepoSizeMB,
		preflight:    cfg.RemotePreflight,
		runGit:       execGit(gitBinary),
	}
}

func execGit(binary string) gitRunner {
	return func(ctx context.Context, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, binary, args...)
		cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
		return cmd.CombinedOutput()
	}
}

// Inspect looks the repository up on its hosting platform before cloning.
// It returns nil info when preflight is disabled, no inspector matches, or
// the lookup fails; only an oversized repository is an error.
func (a *Acquirer) Inspect(ctx context.Context, url string) (*types.RepoInfo, error) {
	if !a.preflight {
		return nil, nil
	}

	for _, inspector := range a.inspectors {
		if !inspector.Matches(url) {
			continue
		}

		info, err := inspector.Inspect(ctx, url)
		if err != nil {
			slog.Warn("Remote preflight failed, continuing without it", "platform", inspector.Name(), "url", url, "error", err)
			return nil, nil
		}

		slog.Debug("Remote preflight",
			"platform", info.Platform,
			"repo", info.FullName(),
			"size_mb", info.SizeMB(),
			"default_branch", info.DefaultBranch,
			"archived", info.Archived)

		if a.maxSizeMB > 0 && info.SizeMB() > float64(a.maxSizeMB) {
			return info, &SizeLimitError{SizeMB: info.SizeMB(), LimitMB: a.maxSizeMB}
		}
		return info, nil
	}

	slog.Debug("No remote inspector for URL", "url", url)
	return nil, nil
}

// WithCheckout shallow-clones url at the given depth into a fresh scratch
// directory, enforces the size ceiling and calls fn with the directory. The
// directory is removed afterwards on every path. An empty branch clones the
// remote default.
func (a *Acquirer) WithCheckout(ctx context.Context, url string, depth int, branch string, fn func(dir string) error) error {
	dir, err := os.MkdirTemp("", TempDirPrefix)
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("Failed to remove checkout", "dir", dir, "error", err)
		}
	}()

	if err := a.clone(ctx, url, depth, branch, dir); err != nil {
		return err
	}

	size, err := dirSize(dir)
	if err != nil {
		return fmt.Errorf("failed to measure checkout: %w", err)
	}
	sizeMB := float64(size) / (1024 * 1024)
	slog.Debug("Repository cloned", "url", url, "size_mb", fmt.Sprintf("%.1f", sizeMB))

	if a.maxSizeMB > 0 && sizeMB > float64(a.maxSizeMB) {
		return &SizeLimitError{SizeMB: sizeMB, LimitMB: a.maxSizeMB}
	}

	return fn(dir)
}

func (a *Acquirer) clone(ctx context.Context, url string, depth int, branch, dir string) error {
	if a.cloneTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cloneTimeout)
		defer cancel()
	}

	args := []string{"clone", "--depth", strconv.Itoa(depth), "--single-branch"}
	if branch = strings.TrimSpace(branch); branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, url, dir)

	slog.Debug("Cloning repository", "url", url, "depth", depth, "branch", branch)

	out, err := a.runGit(ctx, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("clone timed out after %s: %w", a.cloneTimeout, ctx.Err())
		}
		return &CloneError{URL: url, Output: string(out), Err: err}
	}
	return nil
}

// dirSize sums the sizes of all regular files under root
func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
