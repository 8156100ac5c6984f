package scope

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/viant/lintexec/pathutil"
)

// NormalizeTarget keeps "/" as-is and strips a trailing slash otherwise
func NormalizeTarget(target string) string {
	target = pathutil.Normalize(strings.TrimSpace(target))
	if target == "" || target == "/" {
		return "/"
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return strings.TrimSuffix(target, "/")
}

// EffectivePattern composes a target path and a scope entry into one glob:
//   - no scope: everything under the target
//   - scope already rooted at the target: used verbatim
//   - otherwise: scope is target-relative and gets concatenated
//
// Directory-like results (ending in "/") match everything below them.
func EffectivePattern(target, scope string) string {
	target = NormalizeTarget(target)
	scope = pathutil.Normalize(strings.TrimSpace(scope))
	if scope == "" {
		if target == "/" {
			return "/**"
		}
		return target + "/**"
	}
	if target != "/" && (scope == target || strings.HasPrefix(scope, target+"/")) {
		return directoryLike(scope)
	}
	scope = strings.TrimPrefix(scope, "/")
	if target == "/" {
		return directoryLike("/" + scope)
	}
	return directoryLike(target + "/" + scope)
}

func directoryLike(pattern string) string {
	if strings.HasSuffix(pattern, "/") {
		return pattern + "**"
	}
	return pattern
}

// Matches reports whether a root-relative file path falls under target and any scope pattern.
// With no patterns, any file below target matches.
func Matches(file, target string, patterns []string) bool {
	return defaultMatcher.Matches(file, target, patterns)
}

var defaultMatcher = NewMatcher(nil)

// Matcher caches effective patterns across calls; it is safe for concurrent use
type Matcher struct {
	mux      sync.RWMutex
	patterns map[[2]string]string
	logger   *slog.Logger
}

// NewMatcher creates a matcher, logger defaults to slog.Default()
func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{patterns: map[[2]string]string{}, logger: logger}
}

// Matches reports whether file matches target and any of patterns
func (m *Matcher) Matches(file, target string, patterns []string) bool {
	file = pathutil.Normalize(file)
	if !strings.HasPrefix(file, "/") {
		file = "/" + file
	}
	if len(patterns) == 0 {
		return m.match(m.effective(target, ""), file)
	}
	for _, pattern := range patterns {
		if m.match(m.effective(target, pattern), file) {
			return true
		}
	}
	return false
}

func (m *Matcher) effective(target, scope string) string {
	key := [2]string{target, scope}
	m.mux.RLock()
	pattern, ok := m.patterns[key]
	m.mux.RUnlock()
	if ok {
		return pattern
	}
	pattern = EffectivePattern(target, scope)
	m.mux.Lock()
	m.patterns[key] = pattern
	m.mux.Unlock()
	return pattern
}

func (m *Matcher) match(pattern, file string) bool {
	matched, err := doublestar.Match(pattern, file)
	if err != nil {
		m.log().Debug("invalid scope pattern", slog.String("pattern", pattern), slog.Any("error", err))
		return false
	}
	return matched
}

func (m *Matcher) log() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}
