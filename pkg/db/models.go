package db

import "time"

// Message is one relayed chat line as it was broadcast.
type Message struct {
	ID               int64
	Context          string
	Speaker          string
	RawText          string
	Annotation       string // empty when the line was not annotated
	AnnotationSource string // "dictionary", "phonetic" or empty
	SentAt           time.Time
}

// SpeakerStats summarizes how often a speaker's lines were annotated.
type SpeakerStats struct {
	Speaker   string
	Messages  int
	Annotated int
}
