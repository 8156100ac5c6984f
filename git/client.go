package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/viant/afs"
)

// DefaultTimeout bounds every git invocation
const DefaultTimeout = 30 * time.Second

// Client runs local git plumbing commands and parses their output.
// It is safe for concurrent use.
type Client struct {
	binary  string
	timeout time.Duration
	fs      afs.Service
	logger  *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-command timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithBinary overrides the git executable
func WithBinary(binary string) Option {
	return func(c *Client) {
		c.binary = binary
	}
}

// WithFS sets the file system used to read untracked files
func WithFS(fs afs.Service) Option {
	return func(c *Client) {
		c.fs = fs
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a git client
func New(opts ...Option) *Client {
	ret := &Client{binary: "git", timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.timeout <= 0 {
		ret.timeout = DefaultTimeout
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	return ret
}

// run executes git in dir and returns its stdout
func (c *Client) run(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// paths are reported verbatim instead of octal-escaped
	cmd := exec.CommandContext(ctx, c.binary, append([]string{"-c", "core.quotePath=false"}, args...)...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{Args: args, Dir: dir, Stderr: stderr.String(), Err: ErrCommandFailed}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			cmdErr.Err = ErrTimeout
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		c.logger.Debug("git command failed", slog.String("dir", dir), slog.Any("args", args), slog.Any("error", cmdErr))
		return "", cmdErr
	}
	return stdout.String(), nil
}

// Root returns the top level directory of the work tree containing dir.
// A directory outside any repository yields ErrNotRepository.
func (c *Client) Root(ctx context.Context, dir string) (string, error) {
	output, err := c.run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v: %w", ErrNotRepository, dir, err)
	}
	root := strings.TrimSpace(output)
	if root == "" {
		return "", fmt.Errorf("%w: %v", ErrNotRepository, dir)
	}
	return filepath.FromSlash(root), nil
}

// TryRoot is Root for callers treating git as optional
func (c *Client) TryRoot(ctx context.Context, dir string) (string, bool) {
	root, err := c.Root(ctx, dir)
	if err != nil {
		return "", false
	}
	return root, true
}

// CurrentBranch returns the checked out branch name
func (c *Client) CurrentBranch(ctx context.Context, dir string) (string, error) {
	output, err := c.run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return strings.TrimSpace(output), nil
}

// CurrentBranches returns local branch names
func (c *Client) CurrentBranches(ctx context.Context, dir string) ([]string, error) {
	output, err := c.run(ctx, dir, "branch", "--format=%(refname:short)")
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return splitLines(output), nil
}

// RemoteURL returns the URL of the named remote, or of origin (or the only remote) when name is empty.
// A trailing ".git" is stripped; the URL is otherwise returned verbatim.
func (c *Client) RemoteURL(ctx context.Context, dir string, name string) (string, error) {
	output, err := c.run(ctx, dir, "remote")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRemoteURL, err)
	}
	remotes := splitLines(output)
	if len(remotes) == 0 {
		return "", ErrNoRemotes
	}
	remote, err := selectRemote(remotes, name)
	if err != nil {
		return "", err
	}
	output, err = c.run(ctx, dir, "remote", "get-url", remote)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRemoteURL, err)
	}
	return NormalizeRemoteURL(output), nil
}

func selectRemote(remotes []string, name string) (string, error) {
	if name != "" {
		for _, remote := range remotes {
			if remote == name {
				return remote, nil
			}
		}
		return "", fmt.Errorf("remote '%s' not found in repository: %w", name, ErrRemoteNotFound)
	}
	if len(remotes) == 1 {
		return remotes[0], nil
	}
	for _, remote := range remotes {
		if remote == "origin" {
			return remote, nil
		}
	}
	return "", ErrAmbiguousRemote
}

// NormalizeRemoteURL trims whitespace and a trailing ".git"
func NormalizeRemoteURL(remoteURL string) string {
	return strings.TrimSuffix(strings.TrimSpace(remoteURL), ".git")
}

func splitLines(output string) []string {
	var ret []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ret = append(ret, line)
		}
	}
	return ret
}
