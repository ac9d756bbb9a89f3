package chatall

import (
	"regexp"

	"github.com/japaniel/chatall/pkg/dictionary"
)

// romajiOnly matches a folded line made only of lowercase ASCII letters and
// spaces.
var romajiOnly = regexp.MustCompile(`^[a-z ]+$`)

// IsRomanizedOnly reports whether line, once folded, contains nothing but
// ASCII letters and spaces. Digits, punctuation or any non-ASCII rune reject
// the whole line, as does an empty line.
func IsRomanizedOnly(line string) bool {
	return romajiOnly.MatchString(dictionary.Fold(line))
}
