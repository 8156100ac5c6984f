package linter

import (
	"errors"
	"fmt"

	"github.com/viant/lintexec/language"
)

var (
	// ErrPathNotFound indicates the lint path does not exist or cannot be accessed
	ErrPathNotFound = errors.New("path not found")
	// ErrGitRequired indicates a diff mode outside a git repository
	ErrGitRequired = errors.New("the --changed-files and --changed-lines options require the project to be in a Git repository")
	// ErrNoConfig indicates no packmind.json was found in the searched range
	ErrNoConfig = errors.New("no packmind.json found")
	// ErrNoPrograms indicates a rule without detection programs
	ErrNoPrograms = errors.New("no detection programs found")
	// ErrNoGateway indicates a service built without a gateway
	ErrNoGateway = errors.New("gateway is not configured")
)

// NoConfigError names the searched range of a config lookup
type NoConfigError struct {
	Directory string
	Boundary  string
}

func (e *NoConfigError) Error() string {
	return fmt.Sprintf("no packmind.json found between %v and %v. Cannot use local linting.", e.Directory, e.Boundary)
}

func (e *NoConfigError) Unwrap() error {
	return ErrNoConfig
}

// NoProgramsError names the rule a lookup returned nothing for
type NoProgramsError struct {
	Draft        bool
	RuleID       string
	StandardSlug string
	Language     language.Language
}

func (e *NoProgramsError) Error() string {
	kind := "active"
	if e.Draft {
		kind = "draft"
	}
	ret := fmt.Sprintf("no %v detection programs found for rule %v in standard %v", kind, e.RuleID, e.StandardSlug)
	if e.Language != "" {
		ret += " for language " + string(e.Language)
	}
	return ret
}

func (e *NoProgramsError) Unwrap() error {
	return ErrNoPrograms
}
