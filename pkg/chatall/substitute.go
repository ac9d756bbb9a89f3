package chatall

import (
	"strings"

	"github.com/japaniel/chatall/pkg/dictionary"
)

// EntrySource supplies dictionary entries in substitution order.
// *dictionary.Store implements it.
type EntrySource interface {
	Entries() []dictionary.Entry
}

// segment is a run of the line. Fixed segments were produced by a
// replacement and are not scanned again.
type segment struct {
	text  string
	fixed bool
}

// Apply folds line and replaces dictionary keys with their values, longest
// key first. Each key replaces every non-overlapping occurrence, left to
// right, in the text no earlier replacement produced. Values are inserted
// verbatim. With no match the folded line is returned.
func Apply(line string, dict EntrySource) string {
	folded := dictionary.Fold(line)
	if dict == nil {
		return folded
	}
	return substitute(folded, dict.Entries())
}

// substitute applies entries, already ordered, to a folded line.
func substitute(folded string, entries []dictionary.Entry) string {
	segs := []segment{{text: folded}}
	changed := false
	for _, e := range entries {
		if e.Key == "" || e.Value == "" {
			continue
		}
		var ok bool
		segs, ok = replaceKey(segs, e)
		changed = changed || ok
	}
	if !changed {
		return folded
	}

	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.text)
	}
	return b.String()
}

func replaceKey(segs []segment, e dictionary.Entry) ([]segment, bool) {
	hit := false
	for _, s := range segs {
		if !s.fixed && strings.Contains(s.text, e.Key) {
			hit = true
			break
		}
	}
	if !hit {
		return segs, false
	}

	out := make([]segment, 0, len(segs)+2)
	for _, s := range segs {
		if s.fixed {
			out = append(out, s)
			continue
		}
		rest := s.text
		for {
			i := strings.Index(rest, e.Key)
			if i < 0 {
				break
			}
			if i > 0 {
				out = append(out, segment{text: rest[:i]})
			}
			out = append(out, segment{text: e.Value, fixed: true})
			rest = rest[i+len(e.Key):]
		}
		if rest != "" {
			out = append(out, segment{text: rest})
		}
	}
	return out, true
}
