// Package filename builds the names receipts are stored under.
package filename

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	// MaxLen is the longest sanitized component, in runes.
	MaxLen = 150
	// Separator joins the person and the original file name, and precedes
	// the collision counter.
	Separator = "__"
	// Placeholder stands in for a component that sanitizes to nothing.
	Placeholder = "unnamed"
)

// Sanitize trims s, replaces every rune other than letters, digits, '_',
// '-', '.' and ' ' with '_', turns each run of spaces into a single '_'
// and truncates the result to MaxLen runes.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)

	var b strings.Builder
	inSpace := false
	for _, r := range s {
		switch {
		case r == ' ':
			if !inSpace {
				b.WriteRune('_')
			}
			inSpace = true
			continue
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
		inSpace = false
	}

	out := []rune(b.String())
	if len(out) > MaxLen {
		out = out[:MaxLen]
	}
	return string(out)
}

// Candidate is the first name tried for a receipt: "<user>__<file>".
func Candidate(userName, fileName string) string {
	return orPlaceholder(Sanitize(userName)) + Separator + orPlaceholder(Sanitize(fileName))
}

// WithCounter inserts "__n" before the extension of name. n <= 0 returns
// name unchanged.
//
//	WithCounter("Bob__receipt.pdf", 1) -> "Bob__receipt__1.pdf"
func WithCounter(name string, n int) string {
	if n <= 0 {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		// Dotfiles like ".pdf" have no stem; keep the counter in front.
		base, ext = ext, ""
	}
	return fmt.Sprintf("%s%s%d%s", base, Separator, n, ext)
}

func orPlaceholder(s string) string {
	if strings.Trim(s, "._") == "" {
		return Placeholder
	}
	return s
}
