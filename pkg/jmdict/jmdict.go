// Package jmdict reads jmdict-simplified word lists and turns them into user
// dictionary candidates (romaji reading -> written form).
package jmdict

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/japaniel/chatall/pkg/dictionary"
	"github.com/japaniel/chatall/pkg/reading"
)

// Entry matches the structure of jmdict-simplified entries.
type Entry struct {
	ID    string    `json:"id"`
	Kanji []Element `json:"kanji"`
	Kana  []Element `json:"kana"`
	Sense []Sense   `json:"sense"`
}

// Element is one written or kana form of a word.
type Element struct {
	Text   string `json:"text"`
	Common bool   `json:"common"`
}

// Sense is one meaning of a word.
type Sense struct {
	Gloss []Gloss `json:"gloss"`
}

// Gloss is a translation of a sense.
type Gloss struct {
	Text string `json:"text"`
	Lang string `json:"lang"` // defaults to 'eng' if missing
}

// Meaning joins the English glosses of the first sense with "; ".
func (e Entry) Meaning() string {
	if len(e.Sense) == 0 {
		return ""
	}
	var texts []string
	for _, g := range e.Sense[0].Gloss {
		if g.Text != "" && (g.Lang == "" || g.Lang == "eng") {
			texts = append(texts, g.Text)
		}
	}
	return strings.Join(texts, "; ")
}

// Meanings maps every written form to the meaning of the first word that
// uses it, for describing Candidates.
func Meanings(entries []Entry) map[string]string {
	out := make(map[string]string)
	for _, e := range entries {
		m := e.Meaning()
		if m == "" {
			continue
		}
		for _, k := range e.Kanji {
			if _, ok := out[k.Text]; !ok && k.Text != "" {
				out[k.Text] = m
			}
		}
	}
	return out
}

// LoadFile reads a jmdict-simplified JSON file, either the release object
// {"words": [...]} or a bare array.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load decodes entries from r. r must be seekable to retry the array form.
func Load(r io.ReadSeeker) ([]Entry, error) {
	var wrapper struct {
		Words []Entry `json:"words"`
	}
	if err := json.NewDecoder(r).Decode(&wrapper); err == nil && len(wrapper.Words) > 0 {
		return wrapper.Words, nil
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary as object or array: %w", err)
	}
	return entries, nil
}

// CandidateOptions filters Candidates.
type CandidateOptions struct {
	// MinKeyLength drops keys shorter than this many letters; short keys
	// would fragment ordinary romaji in chat.
	MinKeyLength int
	// CommonOnly keeps only elements flagged common.
	CommonOnly bool
}

// Candidates returns one dictionary entry per usable JMdict word: the romaji
// of its first kana reading mapped to its first written form. Words written
// only in kana are skipped since the phonetic fallback already covers them.
// When two words share a key the first one wins.
func Candidates(entries []Entry, opts CandidateOptions) []dictionary.Entry {
	seen := make(map[string]bool)
	var out []dictionary.Entry
	for _, e := range entries {
		written, ok := firstElement(e.Kanji, opts.CommonOnly)
		if !ok {
			continue
		}
		kanaEl, ok := firstElement(e.Kana, opts.CommonOnly)
		if !ok {
			continue
		}
		key, err := reading.KeyFromKana(kanaEl.Text)
		if err != nil || utf8.RuneCountInString(key) < opts.MinKeyLength || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, dictionary.Entry{Key: key, Value: written.Text})
	}
	return out
}

func firstElement(els []Element, commonOnly bool) (Element, bool) {
	for _, el := range els {
		if el.Text == "" || (commonOnly && !el.Common) {
			continue
		}
		return el, true
	}
	return Element{}, false
}
