// Package reading derives pronunciations for Japanese text with kagome so a
// dictionary key can be generated from a Japanese value.
package reading

import (
	"errors"
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/japaniel/chatall/pkg/kana"
)

// ErrNoReading is returned when part of the text has no known pronunciation.
var ErrNoReading = errors.New("reading: no pronunciation for text")

// Token is one analyzed unit of text.
type Token struct {
	Surface  string // the text as it appears (e.g. "今日")
	BaseForm string // dictionary form
	Reading  string // katakana reading, empty when unknown
	POS      string // primary part of speech (IPA labels)
}

// Analyzer wraps a kagome tokenizer using the IPA dictionary.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer creates a tokenizer. Loading the IPA dictionary is slow, so
// callers should keep one Analyzer around.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

// Analyze splits text into tokens.
func (a *Analyzer) Analyze(text string) []Token {
	var result []Token
	for _, tok := range a.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY || strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		// IPA features: 0 POS, 6 base form, 7 reading, 8 pronunciation.
		features := tok.Features()
		t := Token{Surface: tok.Surface, BaseForm: tok.Surface}
		if len(features) > 0 {
			t.POS = features[0]
		}
		if len(features) > 6 && features[6] != "*" {
			t.BaseForm = features[6]
		}
		if len(features) > 7 && features[7] != "*" {
			t.Reading = features[7]
		}
		result = append(result, t)
	}
	return result
}

// Reading returns the katakana reading of text. Tokens that are already kana
// read as themselves; any other token without a reading yields ErrNoReading.
func (a *Analyzer) Reading(text string) (string, error) {
	var b strings.Builder
	for _, t := range a.Analyze(text) {
		switch {
		case t.Reading != "":
			b.WriteString(t.Reading)
		case kana.IsKana(t.Surface):
			b.WriteString(kana.HiraganaToKatakana(t.Surface))
		default:
			return "", ErrNoReading
		}
	}
	if b.Len() == 0 {
		return "", ErrNoReading
	}
	return b.String(), nil
}

// RomajiKey returns the romaji a user would type for text, suitable as a
// dictionary key: lowercase ASCII letters only.
func (a *Analyzer) RomajiKey(text string) (string, error) {
	r, err := a.Reading(text)
	if err != nil {
		return "", err
	}
	return KeyFromKana(r)
}

// KeyFromKana converts a kana reading to a romaji key. It fails when the
// reading contains anything that does not transliterate to ASCII letters.
func KeyFromKana(reading string) (string, error) {
	key := kana.ToRomaji(reading)
	if key == "" {
		return "", ErrNoReading
	}
	for _, r := range key {
		if r > unicode.MaxASCII || !unicode.IsLower(r) {
			return "", ErrNoReading
		}
	}
	return key, nil
}
