package engine

import (
	"log/slog"
	"path"

	"github.com/bmatcuk/doublestar/v4"
)

// ExcludeList matches relative paths against user-configured glob patterns.
// `*` matches within one path segment, `**` matches across segments. A
// pattern without a slash also matches against the file's base name, so
// `*.log` excludes logs at any depth.
type ExcludeList struct {
	patterns []string
}

func NewExcludeList(patterns []string) *ExcludeList {
	valid := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			slog.Warn("ignoring invalid exclude pattern", "pattern", p)
			continue
		}
		valid = append(valid, p)
	}
	return &ExcludeList{patterns: valid}
}

// Match reports whether the slash-separated relative path is excluded.
func (e *ExcludeList) Match(relPath string) bool {
	base := path.Base(relPath)
	for _, pattern := range e.patterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
		if !hasSlash(pattern) {
			if ok, _ := doublestar.Match(pattern, base); ok {
				return true
			}
		}
	}
	return false
}

func hasSlash(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return true
		}
	}
	return false
}
