package chatall

import (
	"strings"

	"github.com/japaniel/chatall/pkg/dictionary"
)

// Phonetic converts romaji text to a phonetic rendering. Implementations must
// be safe for concurrent use and never fail.
type Phonetic interface {
	ToPhonetic(text string) string
}

// PhoneticFunc adapts a plain function to Phonetic.
type PhoneticFunc func(text string) string

func (f PhoneticFunc) ToPhonetic(text string) string { return f(text) }

// Source says where an annotation came from.
type Source string

const (
	SourceNone       Source = ""
	SourceDictionary Source = "dictionary"
	SourcePhonetic   Source = "phonetic"
)

// Result is the outcome of converting one line. Display is always the raw
// line; Annotation is empty when there is nothing to add.
type Result struct {
	Display    string
	Annotation string
	Source     Source
}

// Annotated reports whether the result carries an annotation.
func (r Result) Annotated() bool { return r.Annotation != "" }

// Pipeline converts chat lines. It only reads the dictionary.
type Pipeline struct {
	dict     EntrySource
	phonetic Phonetic
}

// NewPipeline returns a pipeline over dict with phonetic as the fallback.
// Either may be nil.
func NewPipeline(dict EntrySource, phonetic Phonetic) *Pipeline {
	return &Pipeline{dict: dict, phonetic: phonetic}
}

// Convert classifies line and builds its annotation. Lines that are not
// romaji are returned untouched without consulting the dictionary.
// A dictionary result that differs from line only in case is dropped like an
// unchanged phonetic fallback, so "gg" -> "GG" yields no annotation.
func (p *Pipeline) Convert(line string) Result {
	res := Result{Display: line}
	if !IsRomanizedOnly(line) {
		return res
	}

	var candidate string
	source := SourceDictionary
	if afterDict := Apply(line, p.dict); afterDict != dictionary.Fold(line) {
		candidate = afterDict
	} else if p.phonetic != nil {
		candidate = p.phonetic.ToPhonetic(line)
		source = SourcePhonetic
	}

	if candidate == "" || strings.EqualFold(candidate, line) {
		return res
	}
	res.Annotation = candidate
	res.Source = source
	return res
}
