// Package chatall decides whether a chat line is romaji and, if so, builds
// the annotation shown next to it: a user dictionary substitution when one
// applies, otherwise a phonetic transliteration.
package chatall

// Version returns the current version of the package.
func Version() string { return "1.0.0" }

// Line is one chat message as delivered by the relay. Speaker and Context
// are opaque and passed through unchanged.
type Line struct {
	Speaker string // who sent it
	Context string // originating server or channel
	Text    string
}
