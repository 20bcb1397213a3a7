// Package sanitize turns user-supplied display names into filesystem-safe
// path segments.
package sanitize

import (
	"fmt"
	"strings"

	"github.com/otymus27/portal-hrg/pkg/portal/models"
)

func safe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '-':
		return true
	}
	return false
}

// Name returns a filesystem-safe version of name: every character outside
// [A-Za-z0-9._-] is replaced with '_'. Blank input, or input whose safe
// form would still be effectively empty, fails with models.ErrInvalidName.
func Name(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: name is empty", models.ErrInvalidName)
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if safe(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	out := b.String()
	// A segment of only underscores and dots carries no usable name and
	// "." / ".." would escape the parent directory.
	if strings.Trim(out, "._") == "" {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidName, name)
	}
	return out, nil
}
