package pathutil

import (
	"path"
	"strings"
)

// Normalize converts platform separators to forward slashes
func Normalize(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// StartsWith reports whether p equals prefix or lies below it at a path boundary
func StartsWith(p, prefix string) bool {
	p = Normalize(p)
	prefix = Normalize(prefix)
	if prefix != "/" {
		prefix = strings.TrimSuffix(prefix, "/")
	}
	if p == prefix {
		return true
	}
	if prefix == "/" {
		return strings.HasPrefix(p, "/")
	}
	return strings.HasPrefix(p, prefix+"/")
}

// Relative returns abs expressed relative to base, forward-slashed with a leading '/'
func Relative(base, abs string) string {
	base = strings.TrimSuffix(Normalize(base), "/")
	abs = Normalize(abs)
	rel := abs
	if base != "" && StartsWith(abs, base) {
		rel = strings.TrimPrefix(abs, base)
	}
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return rel
}

// Extension returns the text after the last dot of the base name, without the dot.
// It returns an empty string when there is no dot or the name ends with one.
func Extension(name string) string {
	base := path.Base(Normalize(name))
	idx := strings.LastIndex(base, ".")
	if idx == -1 || idx == len(base)-1 {
		return ""
	}
	return base[idx+1:]
}
