package linter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/lintexec/gateway"
	"github.com/viant/lintexec/model"
	"github.com/viant/lintexec/pathutil"
	"github.com/viant/lintexec/repository"
)

// ConfigRequest lints a path with the packages declared in packmind.json files
type ConfigRequest struct {
	Path     string
	DiffMode model.DiffMode
}

// LintConfig lints a path with the detection programs of every package declared by
// packmind.json files between the path and the git root, and below the git root
func (s *Service) LintConfig(ctx context.Context, request ConfigRequest) (result *model.Result, err error) {
	if s.gateway == nil {
		return nil, ErrNoGateway
	}
	r := s.newRun("config", request.DiffMode)
	ctx, span := startRunSpan(ctx, r)
	defer func() { endRunSpan(span, result, err) }()
	r.logger.Debug("lint config", slog.String("path", request.Path), slog.String("diffMode", string(request.DiffMode)))

	if err = s.resolvePath(ctx, r, request.Path); err != nil {
		return nil, err
	}
	proceed, err := s.resolveDiff(ctx, r)
	if err != nil {
		return nil, err
	}
	if !proceed {
		return emptyResult(), nil
	}
	configs, err := s.configs.FindAllConfigsInTree(ctx, r.dir, r.gitRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to find configs: %w", err)
	}
	if !configs.HasConfigs {
		boundary := r.gitRoot
		if boundary == "" {
			boundary = "filesystem root"
		}
		return nil, &NoConfigError{Directory: r.dir, Boundary: boundary}
	}
	for _, config := range configs.Configs {
		r.logger.Debug("using config",
			slog.String("config", config.AbsoluteTargetPath+"/"+repository.ConfigFilename),
			slog.String("target", config.TargetPath))
	}
	if err = s.enumerate(ctx, r); err != nil {
		return nil, err
	}
	targets, err := s.configTargets(ctx, r, configs.Configs)
	if err != nil {
		return nil, err
	}
	if result, err = s.lintFiles(ctx, r, configs.BasePath, targets); err != nil {
		return nil, err
	}
	s.track(ctx, r, execution(targets))
	return result, nil
}

// configTargets fetches programs for every config owning at least one file to lint;
// targets of a response are anchored at the config directory
func (s *Service) configTargets(ctx context.Context, r *run, configs []*repository.TargetConfig) ([]anchoredTarget, error) {
	programs := s.gateway
	if _, ok := programs.(*gateway.Memo); !ok {
		programs = gateway.Memoize(programs)
	}
	var ret []anchoredTarget
	for _, config := range configs {
		if len(config.Packages) == 0 || !ownsAny(config.AbsoluteTargetPath, r.files) {
			continue
		}
		slugs := make([]string, 0, len(config.Packages))
		for slug := range config.Packages {
			slugs = append(slugs, slug)
		}
		r.logger.Debug("fetching detection programs", slog.String("packages", gateway.PackagesKey(slugs)))
		response, err := programs.GetDetectionProgramsForPackages(ctx, gateway.PackagesQuery{PackagesSlugs: slugs})
		if err != nil {
			return nil, fmt.Errorf("failed to get detection programs for %v: %w", config.AbsoluteTargetPath, err)
		}
		for _, target := range response.Targets {
			ret = append(ret, anchoredTarget{target: target, path: config.TargetPath, location: config.AbsoluteTargetPath})
		}
	}
	return ret, nil
}

func ownsAny(location string, files []string) bool {
	for _, file := range files {
		if pathutil.StartsWith(file, location) {
			return true
		}
	}
	return false
}

func execution(targets []anchoredTarget) gateway.Execution {
	standards := map[string]bool{}
	for _, anchored := range targets {
		for _, standard := range anchored.target.Standards {
			standards[standard.Slug] = true
		}
	}
	return gateway.Execution{TargetCount: len(targets), StandardCount: len(standards)}
}
