package linter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/viant/lintexec/language"
	"github.com/viant/lintexec/model"
	"github.com/viant/lintexec/pathutil"
)

// fileOutcome is what one file contributes to a run
type fileOutcome struct {
	file       string
	standards  []string
	violations []model.Violation
}

// program is a detection program bound to the standard and rule it reports for
type program struct {
	standard string
	rule     string
	severity model.Severity
	program  *model.DetectionProgram
}

type programKey struct {
	standard string
	rule     string
	language language.Language
}

// collectPrograms gathers programs of every standard matching the file, applying each
// (standard, rule content, language) combination once across overlapping targets
func (s *Service) collectPrograms(r *run, basePath, file string, lang language.Language, targets []anchoredTarget) ([]program, []string) {
	relPath := pathutil.Relative(basePath, file)
	var programs []program
	var standards []string
	seenStandards := map[string]bool{}
	seenRules := map[programKey]bool{}
	for i := range targets {
		anchored := &targets[i]
		if anchored.location != "" && !pathutil.StartsWith(file, anchored.location) {
			continue
		}
		fileRel, targetPath := relPath, anchored.path
		if anchored.location != "" && !pathutil.StartsWith(anchored.location, basePath) {
			// config above the base path: match relative to its own directory
			fileRel, targetPath = pathutil.Relative(anchored.location, file), "/"
		}
		for j := range anchored.target.Standards {
			standard := &anchored.target.Standards[j]
			if !s.matcher.Matches(fileRel, targetPath, standard.Scope) {
				continue
			}
			if !seenStandards[standard.Slug] {
				seenStandards[standard.Slug] = true
				standards = append(standards, standard.Slug)
			}
			for k := range standard.Rules {
				rule := &standard.Rules[k]
				key := programKey{standard: standard.Slug, rule: rule.Content, language: lang}
				if seenRules[key] {
					continue
				}
				matched := false
				for l := range rule.ActiveDetectionPrograms {
					active := &rule.ActiveDetectionPrograms[l]
					programLang, err := language.Parse(string(active.Language))
					if err != nil {
						r.logger.Warn("unsupported program language",
							slog.String("file", file),
							slog.String("standard", standard.Slug),
							slog.String("language", string(active.Language)))
						continue
					}
					if programLang != lang {
						continue
					}
					matched = true
					detection := active.DetectionProgram
					detection.Language = programLang
					programs = append(programs, program{
						standard: standard.Slug,
						rule:     rule.Content,
						severity: active.Severity.OrDefault(),
						program:  &detection,
					})
				}
				if matched {
					seenRules[key] = true
				}
			}
		}
	}
	return programs, standards
}

// processFile executes every program applying to file; failures of a single program or
// an unreadable file are logged and skipped
func (s *Service) processFile(ctx context.Context, r *run, basePath, file string, targets []anchoredTarget) (*fileOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lang, ok := language.FromExtension(pathutil.Extension(file))
	if !ok {
		return nil, nil
	}
	programs, standards := s.collectPrograms(r, basePath, file, lang, targets)
	ret := &fileOutcome{file: file, standards: standards}
	if len(programs) == 0 {
		return ret, nil
	}
	content, err := s.fs.DownloadWithURL(ctx, file)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("failed to read file content", slog.String("file", file), slog.Any("error", err))
		return ret, nil
	}
	detections := make([]*model.DetectionProgram, len(programs))
	for i := range programs {
		detections[i] = programs[i].program
	}
	outcomes := s.executor.ExecuteAll(ctx, detections, content, lang)
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("failed to execute detection program",
				slog.String("file", file),
				slog.String("language", string(lang)),
				slog.String("standard", programs[i].standard),
				slog.String("rule", programs[i].rule),
				slog.Any("error", outcome.Err))
			continue
		}
		for _, hit := range outcome.Hits {
			ret.violations = append(ret.violations, model.Violation{
				Line:      hit.Line,
				Character: hit.Character,
				Rule:      ruleName(programs[i].rule),
				Standard:  programs[i].standard,
				Severity:  programs[i].severity,
			})
		}
	}
	return ret, nil
}

// ruleName shortens path-like rule content ending in .js to its base name
func ruleName(content string) string {
	if strings.HasSuffix(content, ".js") && strings.Contains(content, "/") {
		base := content[strings.LastIndex(content, "/")+1:]
		return strings.TrimSuffix(base, ".js")
	}
	return content
}
