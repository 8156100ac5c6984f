package repository

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/lintexec/pathutil"
)

var excludedDirectories = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	".nx":          true,
}

// Repository discovers packmind.json files on a file system
type Repository struct {
	fs     afs.Service
	logger *slog.Logger
	warned sync.Map
}

// Option configures a Repository
type Option func(*Repository)

// WithFS sets the file system service
func WithFS(fs afs.Service) Option {
	return func(r *Repository) {
		r.fs = fs
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// New creates a config repository
func New(opts ...Option) *Repository {
	ret := &Repository{}
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

// ReadConfig reads the config held by directory.
// It returns nil without error when the file is missing or malformed.
func (r *Repository) ReadConfig(ctx context.Context, directory string) (*Config, error) {
	location := joinPath(directory, ConfigFilename)
	if ok, _ := r.fs.Exists(ctx, location); !ok {
		return nil, nil
	}
	data, err := r.fs.DownloadWithURL(ctx, location)
	if err != nil {
		r.warnOnce(location, err)
		return nil, nil
	}
	config, err := decodeConfig(data)
	if err != nil {
		r.warnOnce(location, err)
		return nil, nil
	}
	if versions := config.unrecognizedVersions(); len(versions) > 0 {
		r.logger.Debug("unrecognized package versions", slog.String("config", location), slog.Any("versions", versions))
	}
	return config, nil
}

func (r *Repository) warnOnce(location string, err error) {
	if _, loaded := r.warned.LoadOrStore(location, true); loaded {
		return
	}
	r.logger.Warn("skipping malformed config file", slog.String("config", location), slog.Any("error", err))
}

// ReadHierarchicalConfig merges configs from start up to stop inclusive, or up to the
// file system root when stop is empty. The nearest config wins for a given slug.
func (r *Repository) ReadHierarchicalConfig(ctx context.Context, start, stop string) (*HierarchicalConfig, error) {
	dirs, err := ancestors(start, stop)
	if err != nil {
		return nil, err
	}
	ret := &HierarchicalConfig{Packages: map[string]string{}}
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		config, err := r.ReadConfig(ctx, dir)
		if err != nil {
			return nil, err
		}
		if config == nil {
			continue
		}
		ret.HasConfigs = true
		ret.ConfigPaths = append(ret.ConfigPaths, joinPath(dir, ConfigFilename))
		for slug, version := range config.Packages {
			if _, ok := ret.Packages[slug]; !ok {
				ret.Packages[slug] = version
			}
		}
	}
	return ret, nil
}

// FindAllConfigsInTree returns configs of start's ancestors up to stop and of every
// descendant of the base path (stop, or start when stop is empty).
func (r *Repository) FindAllConfigsInTree(ctx context.Context, start, stop string) (*TreeConfigs, error) {
	dirs, err := ancestors(start, stop)
	if err != nil {
		return nil, err
	}
	basePath := dirs[0]
	if stop != "" {
		if basePath, err = absolute(stop); err != nil {
			return nil, err
		}
	}
	found := map[string]*TargetConfig{}
	for _, dir := range dirs {
		if err := r.addConfig(ctx, dir, basePath, found); err != nil {
			return nil, err
		}
	}
	descendants, err := r.descendantDirectories(ctx, basePath)
	if err != nil {
		return nil, err
	}
	for _, dir := range descendants {
		if _, ok := found[dir]; ok {
			continue
		}
		if err := r.addConfig(ctx, dir, basePath, found); err != nil {
			return nil, err
		}
	}
	if _, ok := found[basePath]; !ok {
		if err := r.addConfig(ctx, basePath, basePath, found); err != nil {
			return nil, err
		}
	}

	ret := &TreeConfigs{BasePath: basePath}
	for _, config := range found {
		ret.Configs = append(ret.Configs, config)
	}
	sort.Slice(ret.Configs, func(i, j int) bool {
		return ret.Configs[i].TargetPath < ret.Configs[j].TargetPath
	})
	ret.HasConfigs = len(ret.Configs) > 0
	return ret, nil
}

func (r *Repository) addConfig(ctx context.Context, dir, basePath string, found map[string]*TargetConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	config, err := r.ReadConfig(ctx, dir)
	if err != nil || config == nil {
		return err
	}
	found[dir] = &TargetConfig{
		TargetPath:         pathutil.Relative(basePath, dir),
		AbsoluteTargetPath: dir,
		Packages:           config.Packages,
	}
	return nil
}

// descendantDirectories lists every directory below root, skipping build and dependency folders
func (r *Repository) descendantDirectories(ctx context.Context, root string) ([]string, error) {
	var ret []string
	var visit func(dir string) error
	visit = func(dir string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		objects, err := r.fs.List(ctx, dir)
		if err != nil {
			r.logger.Debug("skipping unreadable directory", slog.String("directory", dir), slog.Any("error", err))
			return nil
		}
		dirPath := strings.TrimSuffix(url.Path(dir), "/")
		for _, object := range objects {
			if !object.IsDir() || excludedDirectories[object.Name()] {
				continue
			}
			if strings.TrimSuffix(url.Path(object.URL()), "/") == dirPath {
				continue
			}
			child := joinPath(dir, object.Name())
			ret = append(ret, child)
			if err := visit(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(root); err != nil {
		return nil, err
	}
	return ret, nil
}

// ancestors returns start followed by its parents, up to stop inclusive or the file system root
func ancestors(start, stop string) ([]string, error) {
	dir, err := absolute(start)
	if err != nil {
		return nil, err
	}
	if stop != "" {
		if stop, err = absolute(stop); err != nil {
			return nil, err
		}
	}
	var ret []string
	for {
		ret = append(ret, dir)
		if stop != "" && dir == stop {
			break
		}
		parent := path.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ret, nil
}

func absolute(location string) (string, error) {
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %v: %w", location, err)
	}
	return pathutil.Normalize(abs), nil
}

func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}
