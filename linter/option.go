package linter

import (
	"log/slog"
	"time"

	"github.com/viant/afs"
	"github.com/viant/lintexec/executor"
	"github.com/viant/lintexec/gateway"
	"github.com/viant/lintexec/git"
	"github.com/viant/lintexec/listing"
	"github.com/viant/lintexec/repository"
	"github.com/viant/lintexec/scope"
)

// Option configures a Service
type Option func(*Service)

// WithGateway sets the detection program source
func WithGateway(gw gateway.Gateway) Option {
	return func(s *Service) {
		s.gateway = gw
	}
}

// WithGit sets the git client
func WithGit(client *git.Client) Option {
	return func(s *Service) {
		s.git = client
	}
}

// WithEnumerator sets the file enumerator
func WithEnumerator(enumerator *listing.Enumerator) Option {
	return func(s *Service) {
		s.enumerator = enumerator
	}
}

// WithExecutor sets the detection program executor
func WithExecutor(exec *executor.Executor) Option {
	return func(s *Service) {
		s.executor = exec
	}
}

// WithConfigRepository sets the packmind.json repository
func WithConfigRepository(configs *repository.Repository) Option {
	return func(s *Service) {
		s.configs = configs
	}
}

// WithMatcher sets the scope matcher
func WithMatcher(matcher *scope.Matcher) Option {
	return func(s *Service) {
		s.matcher = matcher
	}
}

// WithFS sets the file system used to stat paths and read file content
func WithFS(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithConcurrency bounds the number of files processed at once
func WithConcurrency(concurrency int) Option {
	return func(s *Service) {
		s.concurrency = concurrency
	}
}

// WithExcludes replaces the default enumeration excludes
func WithExcludes(excludes ...string) Option {
	return func(s *Service) {
		s.excludes = excludes
	}
}

// WithTrackTimeout bounds the execution report sent to the gateway after a run
func WithTrackTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.trackTimeout = timeout
		}
	}
}
