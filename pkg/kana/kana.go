// Package kana transliterates between romaji and kana.
//
// ToHiragana follows common IME typing rules: doubled consonants become a
// small tsu, a lone "n" before a consonant or at the end of a word becomes
// ん, and "nn" collapses to ん unless a vowel follows. Input it cannot convert
// is passed through unchanged.
package kana

import (
	"strings"
	"unicode/utf8"
)

const (
	hiraganaFirst = 'ぁ'
	hiraganaLast  = 'ゖ'
	katakanaFirst = 'ァ'
	katakanaLast  = 'ヶ'
	// katakanaOffset is the distance between a hiragana and its katakana.
	katakanaOffset = katakanaFirst - hiraganaFirst
)

// Script selects the kana set produced by a Converter.
type Script string

const (
	Hiragana Script = "hiragana"
	Katakana Script = "katakana"
)

// Converter turns romaji into one kana script.
type Converter struct {
	Script Script
}

// NewConverter returns a converter for script. Unknown scripts fall back to
// hiragana.
func NewConverter(script Script) *Converter {
	if script != Katakana {
		script = Hiragana
	}
	return &Converter{Script: script}
}

// ToPhonetic converts romaji text to the configured script.
func (c *Converter) ToPhonetic(text string) string {
	if c.Script == Katakana {
		return ToKatakana(text)
	}
	return ToHiragana(text)
}

// ToHiragana converts romaji to hiragana.
func ToHiragana(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s) * 3)

	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			_, size := utf8.DecodeRuneInString(s[i:])
			b.WriteString(s[i : i+size])
			i += size
			continue
		}

		next := byteAt(s, i+1)
		if isConsonant(c) && c != 'n' && next == c {
			b.WriteString("っ")
			i++
			continue
		}
		if c == 't' && next == 'c' && byteAt(s, i+2) == 'h' {
			b.WriteString("っ")
			i++
			continue
		}
		if c == 'n' {
			switch {
			case next == '\'':
				b.WriteString("ん")
				i += 2
				continue
			case next == 'n' && !startsSyllable(byteAt(s, i+2)):
				b.WriteString("ん")
				i += 2
				continue
			case !startsSyllable(next):
				b.WriteString("ん")
				i++
				continue
			}
		}

		if kana, n := matchRomaji(s[i:]); n > 0 {
			b.WriteString(kana)
			i += n
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

// ToKatakana converts romaji to katakana.
func ToKatakana(s string) string {
	return HiraganaToKatakana(ToHiragana(s))
}

// HiraganaToKatakana shifts every hiragana rune to its katakana form.
func HiraganaToKatakana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= hiraganaFirst && r <= hiraganaLast {
			return r + katakanaOffset
		}
		return r
	}, s)
}

// KatakanaToHiragana shifts every katakana rune to its hiragana form.
func KatakanaToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= katakanaFirst && r <= katakanaLast {
			return r - katakanaOffset
		}
		return r
	}, s)
}

// ToRomaji converts hiragana or katakana to Hepburn-style romaji as it would
// be typed on an IME: small tsu doubles the next consonant, ー repeats the
// previous vowel and ん before a vowel or "y" is written "nn". Runes that are
// not kana are kept.
func ToRomaji(s string) string {
	runes := []rune(KatakanaToHiragana(s))
	var b strings.Builder
	sokuon := false

	for i := 0; i < len(runes); {
		r := runes[i]
		switch r {
		case 'っ':
			sokuon = true
			i++
			continue
		case 'ー':
			if v := lastVowel(b.String()); v != 0 {
				b.WriteByte(v)
			}
			i++
			continue
		}

		roma, n := matchKana(runes[i:])
		if n == 0 {
			if sokuon {
				b.WriteString("tsu")
				sokuon = false
			}
			b.WriteRune(r)
			i++
			continue
		}
		if r == 'ん' {
			after, _ := matchKana(runes[i+1:])
			if after != "" && startsSyllable(after[0]) {
				roma = "nn"
			}
		}
		if sokuon {
			if isConsonant(roma[0]) {
				b.WriteByte(roma[0])
			} else {
				b.WriteString("tsu")
			}
			sokuon = false
		}
		b.WriteString(roma)
		i += n
	}
	if sokuon {
		b.WriteString("tsu")
	}
	return b.String()
}

// IsKana reports whether s is non-empty and made only of hiragana, katakana
// and the prolonged sound mark.
func IsKana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isKanaRune(r) {
			return false
		}
	}
	return true
}

func isKanaRune(r rune) bool {
	return (r >= hiraganaFirst && r <= hiraganaLast) ||
		(r >= katakanaFirst && r <= katakanaLast) ||
		r == 'ー'
}

func matchRomaji(s string) (string, int) {
	for n := maxRomajiLen; n > 0; n-- {
		if n > len(s) {
			continue
		}
		if kana, ok := romajiTable[s[:n]]; ok {
			return kana, n
		}
	}
	return "", 0
}

func matchKana(runes []rune) (string, int) {
	for n := 2; n > 0; n-- {
		if n > len(runes) {
			continue
		}
		if roma, ok := kanaTable[string(runes[:n])]; ok {
			return roma, n
		}
	}
	return "", 0
}

func byteAt(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'i', 'u', 'e', 'o':
		return true
	}
	return false
}

func isConsonant(c byte) bool {
	return c >= 'a' && c <= 'z' && !isVowel(c)
}

// startsSyllable reports whether an "n" before c belongs to the next kana.
func startsSyllable(c byte) bool {
	return isVowel(c) || c == 'y'
}

func lastVowel(s string) byte {
	for i := len(s) - 1; i >= 0; i-- {
		if isVowel(s[i]) {
			return s[i]
		}
	}
	return 0
}
