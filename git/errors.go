package git

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotRepository indicates the directory is not inside a git work tree
	ErrNotRepository = errors.New("failed to get git repository root")
	// ErrCommandFailed indicates a git invocation exited with an error
	ErrCommandFailed = errors.New("git command failed")
	// ErrTimeout indicates a git invocation exceeded its deadline
	ErrTimeout = errors.New("git command timed out")
	// ErrNoRemotes indicates the repository has no remotes configured
	ErrNoRemotes = errors.New("no git remotes found in the repository")
	// ErrAmbiguousRemote indicates several remotes exist and none is called origin
	ErrAmbiguousRemote = errors.New("multiple remotes found but no 'origin' remote, please specify the remote name")
	// ErrRemoteNotFound indicates an explicitly requested remote does not exist
	ErrRemoteNotFound = errors.New("remote not found in repository")
	// ErrRemoteURL indicates the remote URL could not be read
	ErrRemoteURL = errors.New("failed to get git remote url")
)

// CommandError describes a failed git invocation
type CommandError struct {
	Args     []string
	Dir      string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s failed in %s", strings.Join(e.Args, " "), e.Dir)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// isUnknownRevision reports whether err is caused by a missing HEAD (repository without commits)
func isUnknownRevision(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	stderr := cmdErr.Stderr
	return strings.Contains(stderr, "unknown revision") ||
		strings.Contains(stderr, "ambiguous argument 'HEAD'") ||
		strings.Contains(stderr, "bad revision 'HEAD'")
}
