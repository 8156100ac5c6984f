package listing

import (
	"regexp"
	"strings"
)

// excluder matches root-relative, forward-slash paths against exclude entries
type excluder struct {
	tokens   map[string]bool
	patterns []*regexp.Regexp
}

func newExcluder(excludes []string) *excluder {
	ret := &excluder{tokens: map[string]bool{}}
	for _, exclude := range excludes {
		exclude = strings.TrimSpace(exclude)
		if exclude == "" {
			continue
		}
		if !strings.Contains(exclude, "*") && !strings.Contains(exclude, "/") {
			ret.tokens[exclude] = true
			continue
		}
		ret.patterns = append(ret.patterns, globToRegexp(exclude))
	}
	return ret
}

// excluded reports whether relPath (no leading slash) is excluded
func (e *excluder) excluded(relPath string) bool {
	if len(e.tokens) > 0 {
		for _, segment := range strings.Split(relPath, "/") {
			if e.tokens[segment] {
				return true
			}
		}
	}
	for _, pattern := range e.patterns {
		if pattern.MatchString(relPath) {
			return true
		}
	}
	return false
}

// globToRegexp converts an exclude glob: "**" -> ".*", "*" -> "[^/]*".
// The pattern is anchored at a path boundary unless it starts with "**/" or ends with "/**".
func globToRegexp(glob string) *regexp.Regexp {
	rooted := strings.HasPrefix(glob, "/")
	glob = strings.TrimPrefix(glob, "/")
	builder := strings.Builder{}
	for i := 0; i < len(glob); i++ {
		if glob[i] == '*' {
			if i+1 < len(glob) && glob[i+1] == '*' {
				builder.WriteString(".*")
				i++
				continue
			}
			builder.WriteString("[^/]*")
			continue
		}
		builder.WriteString(regexp.QuoteMeta(glob[i : i+1]))
	}
	expr := builder.String()
	switch {
	case rooted:
		expr = "^" + expr
	case !strings.HasPrefix(glob, "**/"):
		expr = "(^|/)" + expr
	}
	if !strings.HasSuffix(glob, "/**") {
		expr = expr + "(/|$)"
	}
	return regexp.MustCompile(expr)
}
