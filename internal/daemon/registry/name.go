package registry

import (
	"strings"
	"unicode"
)

// maxSlugLen bounds generated folder names. Long project names that share a
// prefix can therefore slug-collide; Resolve disambiguates with a numeric
// suffix.
const maxSlugLen = 40

// NormalizeName reduces a project name to its lookup key: lower-cased, with
// runs of non-alphanumeric separators collapsed to a single space. Trivially
// renamed or retyped project names resolve to the same key. Idempotent.
func NormalizeName(name string) string {
	var b strings.Builder
	pendingSpace := false

	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		} else {
			pendingSpace = true
		}
	}
	return b.String()
}

// SlugifyFolder derives a filesystem-safe folder name from a project name:
// ASCII lower-cased letters and digits with runs of anything else collapsed
// to single hyphens, capped at maxSlugLen.
func SlugifyFolder(name string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range strings.ToLower(name) {
		isSafe := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isSafe {
			pendingDash = true
			continue
		}
		if pendingDash && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingDash = false
		b.WriteRune(r)
	}

	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "project"
	}
	return slug
}
