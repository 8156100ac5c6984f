package linter

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/lintexec/executor"
	"github.com/viant/lintexec/filter"
	"github.com/viant/lintexec/gateway"
	"github.com/viant/lintexec/git"
	"github.com/viant/lintexec/listing"
	"github.com/viant/lintexec/model"
	"github.com/viant/lintexec/pathutil"
	"github.com/viant/lintexec/repository"
	"github.com/viant/lintexec/scope"
	"golang.org/x/sync/errgroup"
)

// DefaultTrackTimeout bounds reporting a run to the gateway
const DefaultTrackTimeout = 2 * time.Second

// DefaultExcludes are skipped during enumeration
var DefaultExcludes = []string{"node_modules", "dist", ".min.", ".map.", ".git"}

// Service runs detection programs over files
type Service struct {
	gateway      gateway.Gateway
	git          *git.Client
	enumerator   *listing.Enumerator
	executor     *executor.Executor
	configs      *repository.Repository
	matcher      *scope.Matcher
	fs           afs.Service
	logger       *slog.Logger
	concurrency  int
	excludes     []string
	trackTimeout time.Duration
}

// New creates a lint service
func New(opts ...Option) *Service {
	ret := &Service{excludes: DefaultExcludes, trackTimeout: DefaultTrackTimeout}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.git == nil {
		ret.git = git.New(git.WithLogger(ret.logger))
	}
	if ret.enumerator == nil {
		ret.enumerator = listing.New(listing.WithFS(ret.fs), listing.WithLogger(ret.logger))
	}
	if ret.executor == nil {
		ret.executor = executor.New(executor.WithLogger(ret.logger))
	}
	if ret.configs == nil {
		ret.configs = repository.New(repository.WithFS(ret.fs), repository.WithLogger(ret.logger))
	}
	if ret.matcher == nil {
		ret.matcher = scope.NewMatcher(ret.logger)
	}
	if ret.concurrency <= 0 {
		ret.concurrency = runtime.NumCPU()
	}
	return ret
}

// run holds the state of one lint invocation
type run struct {
	id       string
	logger   *slog.Logger
	started  time.Time
	mode     string
	path     string // absolute lint path
	isFile   bool
	dir      string // directory used for git and config resolution
	gitRoot  string
	diffMode model.DiffMode

	modifiedFiles []string
	modifiedLines []model.ModifiedLine
	files         []string
}

// anchoredTarget is a target whose standards are matched against a target path
type anchoredTarget struct {
	target   model.Target
	path     string // target path used for scope matching
	location string // absolute directory a file must lie under, empty for any
}

func (s *Service) newRun(mode string, diffMode model.DiffMode) *run {
	id := uuid.New().String()
	return &run{
		id:       id,
		mode:     mode,
		started:  time.Now(),
		diffMode: diffMode,
		logger:   s.logger.With(slog.String("run", id), slog.String("mode", mode)),
	}
}

// resolvePath resolves the lint path and whether it is a file
func (s *Service) resolvePath(ctx context.Context, r *run, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return fmt.Errorf("%w: %v: %v", ErrPathNotFound, location, err)
	}
	object, err := s.fs.Object(ctx, pathutil.Normalize(abs))
	if err != nil || object == nil {
		return fmt.Errorf("%w: the path %q does not exist or cannot be accessed", ErrPathNotFound, pathutil.Normalize(abs))
	}
	// git reports changes under the canonical root
	if canonical, err := filepath.EvalSymlinks(abs); err == nil {
		abs = canonical
	}
	abs = pathutil.Normalize(abs)
	r.path = abs
	r.isFile = !object.IsDir()
	r.dir = abs
	if r.isFile {
		r.dir = path.Dir(abs)
	}
	r.gitRoot, _ = s.git.TryRoot(ctx, r.dir)
	r.logger.Debug("resolved lint path",
		slog.String("path", r.path),
		slog.Bool("file", r.isFile),
		slog.String("gitRoot", r.gitRoot))
	return nil
}

// resolveDiff loads diff constraints; it reports false when nothing changed
func (s *Service) resolveDiff(ctx context.Context, r *run) (bool, error) {
	if r.diffMode == model.DiffNone {
		return true, nil
	}
	if r.gitRoot == "" {
		return false, ErrGitRequired
	}
	switch r.diffMode {
	case model.DiffFiles:
		files, err := s.git.ModifiedFiles(ctx, r.gitRoot)
		if err != nil {
			return false, fmt.Errorf("failed to get modified files: %w", err)
		}
		r.modifiedFiles = files
		r.logger.Debug("modified files", slog.Int("count", len(files)))
	case model.DiffLines:
		lines, err := s.git.ModifiedLines(ctx, r.gitRoot)
		if err != nil {
			return false, fmt.Errorf("failed to get modified lines: %w", err)
		}
		r.modifiedLines = lines
		seen := map[string]bool{}
		for _, line := range lines {
			if !seen[line.File] {
				seen[line.File] = true
				r.modifiedFiles = append(r.modifiedFiles, line.File)
			}
		}
		r.logger.Debug("modified lines", slog.Int("ranges", len(lines)), slog.Int("files", len(r.modifiedFiles)))
	default:
		return false, fmt.Errorf("unsupported diff mode: %v", r.diffMode)
	}
	return len(r.modifiedFiles) > 0, nil
}

// enumerate lists files to lint, narrowed to modified files in diff modes
func (s *Service) enumerate(ctx context.Context, r *run) error {
	if r.isFile {
		r.files = []string{r.path}
	} else {
		results, err := s.enumerator.List(ctx, r.path, nil, s.excludes)
		if err != nil {
			return fmt.Errorf("failed to list files in %v: %w", r.path, err)
		}
		r.files = make([]string, 0, len(results))
		for _, result := range results {
			r.files = append(r.files, result.Path)
		}
	}
	if r.modifiedFiles != nil {
		modified := make(map[string]bool, len(r.modifiedFiles))
		for _, file := range r.modifiedFiles {
			modified[file] = true
		}
		filtered := r.files[:0]
		for _, file := range r.files {
			if modified[file] {
				filtered = append(filtered, file)
			}
		}
		r.files = filtered
	}
	r.logger.Debug("files to lint", slog.Int("count", len(r.files)))
	return nil
}

// lintFiles runs matching programs over every file and builds the result
func (s *Service) lintFiles(ctx context.Context, r *run, basePath string, targets []anchoredTarget) (*model.Result, error) {
	outcomes := make([]*fileOutcome, len(r.files))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i, file := range r.files {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			outcome, err := s.processFile(groupCtx, r, basePath, file, targets)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var violations []model.LintViolation
	checked := map[string]bool{}
	for _, outcome := range outcomes {
		if outcome == nil {
			continue
		}
		for _, slug := range outcome.standards {
			checked[slug] = true
		}
		if len(outcome.violations) > 0 {
			violations = append(violations, model.LintViolation{File: outcome.file, Violations: outcome.violations})
		}
	}

	switch r.diffMode {
	case model.DiffLines:
		before := len(violations)
		violations = filter.ByLines(violations, r.modifiedLines)
		r.logger.Debug("filtered violations by lines", slog.Int("before", before), slog.Int("after", len(violations)))
	case model.DiffFiles:
		violations = filter.ByFiles(violations, r.modifiedFiles)
	}
	sort.Slice(violations, func(i, j int) bool {
		return violations[i].File < violations[j].File
	})

	standards := make([]string, 0, len(checked))
	for slug := range checked {
		standards = append(standards, slug)
	}
	sort.Strings(standards)
	result := model.NewResult(violations, len(r.files), standards)
	recordRun(ctx, r.mode, time.Since(r.started), result)
	r.logger.Debug("lint completed",
		slog.Int("files", result.Summary.TotalFiles),
		slog.Int("violatedFiles", result.Summary.ViolatedFiles),
		slog.Int("violations", result.Summary.TotalViolations))
	return result, nil
}

// track reports a run without failing it
// track reports a finished run; it outlives a cancelled run context but not trackTimeout
func (s *Service) track(ctx context.Context, r *run, execution gateway.Execution) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.trackTimeout)
	defer cancel()
	if err := s.gateway.TrackLinterExecution(ctx, execution); err != nil {
		r.logger.Debug("failed to track linter execution", slog.Any("error", err))
	}
}

func emptyResult() *model.Result {
	return model.NewResult(nil, 0, nil)
}
