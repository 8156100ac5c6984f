package linter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/lintexec/gateway"
	"github.com/viant/lintexec/language"
	"github.com/viant/lintexec/model"
)

// RuleRequest lints a path against a single rule
type RuleRequest struct {
	Path         string
	StandardSlug string
	RuleID       string
	Language     language.Language // optional program language filter
	Draft        bool
	DiffMode     model.DiffMode
}

// LintRule lints a path with the active, or draft, detection programs of one rule
func (s *Service) LintRule(ctx context.Context, request RuleRequest) (result *model.Result, err error) {
	if s.gateway == nil {
		return nil, ErrNoGateway
	}
	r := s.newRun("rule", request.DiffMode)
	ctx, span := startRunSpan(ctx, r)
	defer func() { endRunSpan(span, result, err) }()
	r.logger.Debug("lint rule",
		slog.String("path", request.Path),
		slog.String("standard", request.StandardSlug),
		slog.String("rule", request.RuleID),
		slog.String("language", string(request.Language)),
		slog.Bool("draft", request.Draft))

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
	if err = s.enumerate(ctx, r); err != nil {
		return nil, err
	}
	target, err := s.ruleTarget(ctx, request)
	if err != nil {
		return nil, err
	}
	basePath := r.gitRoot
	if basePath == "" {
		basePath = r.dir
	}
	if result, err = s.lintFiles(ctx, r, basePath, []anchoredTarget{{target: *target, path: target.Path}}); err != nil {
		return nil, err
	}
	s.track(ctx, r, gateway.Execution{TargetCount: 1, StandardCount: 1})
	return result, nil
}

// ruleTarget fetches the rule programs and wraps them in a root target
func (s *Service) ruleTarget(ctx context.Context, request RuleRequest) (*model.Target, error) {
	query := gateway.RuleQuery{StandardSlug: request.StandardSlug, RuleID: request.RuleID, Language: request.Language}
	var programs *gateway.RulePrograms
	var err error
	if request.Draft {
		programs, err = s.gateway.GetDraftDetectionProgramForRule(ctx, query)
	} else {
		programs, err = s.gateway.GetActiveDetectionProgramForRule(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detection programs: %w", err)
	}
	if programs == nil || len(programs.Programs) == 0 {
		return nil, &NoProgramsError{Draft: request.Draft, RuleID: request.RuleID, StandardSlug: request.StandardSlug, Language: request.Language}
	}
	name, content := "Active Target", "Active Rule"
	if request.Draft {
		name, content = "Draft Target", "Draft Rule"
	}
	if programs.RuleContent != "" {
		content = programs.RuleContent
	}
	rule := model.Rule{Content: content, ActiveDetectionPrograms: make([]model.ActiveDetectionProgram, 0, len(programs.Programs))}
	for i := range programs.Programs {
		rule.ActiveDetectionPrograms = append(rule.ActiveDetectionPrograms, programs.Programs[i].DetectionProgram())
	}
	return &model.Target{
		Name: name,
		Path: "/",
		Standards: []model.Standard{{
			Name:  request.StandardSlug,
			Slug:  request.StandardSlug,
			Scope: model.NormalizeScope(programs.Scope),
			Rules: []model.Rule{rule},
		}},
	}, nil
}
