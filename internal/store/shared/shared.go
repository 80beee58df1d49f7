package shared

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRe = regexp.MustCompile(`\s+`)
	likeEsc = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	folder  = cases.Fold()
)

// SanitizeString trims, drops NUL bytes, collapses whitespace and applies NFC
// so visually identical titles compare equal in exact-match filters.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\x00", "")
	s = spaceRe.ReplaceAllString(s, " ")
	return norm.NFC.String(s)
}

// EscapeLike escapes LIKE/ILIKE metacharacters so user input matches literally.
func EscapeLike(s string) string {
	return likeEsc.Replace(s)
}

// ContainsPattern wraps s for a substring ILIKE match.
func ContainsPattern(s string) string {
	return "%" + EscapeLike(s) + "%"
}

// Fold returns the case-folded form of s; search is case-insensitive, so two
// terms with equal folds produce the same result set.
func Fold(s string) string {
	return folder.String(norm.NFC.String(s))
}

// ParseID parses a positive integer path identifier.
func ParseID(raw string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
