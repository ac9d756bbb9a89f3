package dictionary

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold lowercases s using root-locale rules. Keys and chat lines are folded
// with the same function so lookups agree with what was stored.
func Fold(s string) string {
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Lower(language.Und).String(s)
}
