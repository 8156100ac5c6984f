package listing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// FileResult is a file produced by the enumerator
type FileResult struct {
	Path string `json:"path"` // absolute path
}

// Enumerator recursively lists files matching extension and exclude rules
type Enumerator struct {
	fs     afs.Service
	logger *slog.Logger
}

// Option configures an Enumerator
type Option func(*Enumerator)

// WithFS sets the file system service used for listing
func WithFS(fs afs.Service) Option {
	return func(e *Enumerator) {
		e.fs = fs
	}
}

// WithLogger sets the logger used to report skipped entries
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enumerator) {
		e.logger = logger
	}
}

// New creates an enumerator
func New(opts ...Option) *Enumerator {
	ret := &Enumerator{}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	return ret
}

// ListOption configures a single listing
type ListOption func(*listing)

type listing struct {
	skipHidden bool
	extensions []string
	excluder   *excluder
	root       string
	files      []FileResult
}

// WithSkipHidden controls whether dot-prefixed files and directories are skipped (default true)
func WithSkipHidden(skip bool) ListOption {
	return func(l *listing) {
		l.skipHidden = skip
	}
}

// List returns files under directory whose name ends with one of extensions
// (all files when extensions is empty) and that match no exclude entry.
// Unreadable directories are logged and skipped.
func (e *Enumerator) List(ctx context.Context, directory string, extensions []string, excludes []string, opts ...ListOption) ([]FileResult, error) {
	root, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %v: %w", directory, err)
	}
	state := &listing{
		skipHidden: true,
		extensions: normalizeExtensions(extensions),
		excluder:   newExcluder(excludes),
		root:       strings.TrimSuffix(filepath.ToSlash(root), "/"),
	}
	for _, opt := range opts {
		opt(state)
	}
	if ok, err := e.fs.Exists(ctx, root); err != nil || !ok {
		return nil, fmt.Errorf("failed to list %v: directory does not exist", directory)
	}
	if err := e.visit(ctx, state, root, ""); err != nil {
		return nil, err
	}
	sort.Slice(state.files, func(i, j int) bool {
		return state.files[i].Path < state.files[j].Path
	})
	return state.files, nil
}

func (e *Enumerator) visit(ctx context.Context, state *listing, dirURL, relDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	objects, err := e.fs.List(ctx, dirURL)
	if err != nil {
		e.logger.Warn("skipping unreadable directory", slog.String("directory", dirURL), slog.Any("error", err))
		return nil
	}
	dirPath := strings.TrimSuffix(url.Path(dirURL), "/")
	for _, object := range objects {
		objectPath := url.Path(object.URL())
		if strings.TrimSuffix(objectPath, "/") == dirPath {
			continue
		}
		name := object.Name()
		if state.skipHidden && strings.HasPrefix(name, ".") {
			continue
		}
		relPath := name
		if relDir != "" {
			relPath = relDir + "/" + name
		}
		if state.excluder.excluded(relPath) {
			continue
		}
		if object.IsDir() {
			if err := e.visit(ctx, state, url.Join(dirURL, name), relPath); err != nil {
				return err
			}
			continue
		}
		if !state.matchesExtension(name) {
			continue
		}
		state.files = append(state.files, FileResult{Path: state.root + "/" + relPath})
	}
	return nil
}

func (l *listing) matchesExtension(name string) bool {
	if len(l.extensions) == 0 {
		return true
	}
	for _, ext := range l.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func normalizeExtensions(extensions []string) []string {
	var ret []string
	for _, ext := range extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		ret = append(ret, ext)
	}
	return ret
}
