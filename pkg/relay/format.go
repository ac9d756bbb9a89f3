package relay

import (
	"github.com/fatih/color"

	"github.com/japaniel/chatall/pkg/chatall"
)

// Formatter composes the broadcast form of a chat line:
//
//	[context] speaker: text (annotation)
//
// with the context and annotation in green and the rest in white.
type Formatter struct {
	green *color.Color
	white *color.Color
}

// NewFormatter returns a formatter. With colored false it emits plain text
// regardless of the terminal.
func NewFormatter(colored bool) *Formatter {
	f := &Formatter{
		green: color.New(color.FgGreen),
		white: color.New(color.FgWhite),
	}
	for _, c := range []*color.Color{f.green, f.white} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

// Format renders line with its conversion result.
func (f *Formatter) Format(line chatall.Line, res chatall.Result) string {
	out := f.green.Sprint("[", line.Context, "] ") +
		f.white.Sprint(line.Speaker, ": ", res.Display)
	if res.Annotated() {
		out += " " + f.green.Sprint("(", res.Annotation, ")")
	}
	return out
}

// Plain renders line without colors, as written to the log.
func Plain(line chatall.Line, res chatall.Result) string {
	out := "[" + line.Context + "] " + line.Speaker + ": " + res.Display
	if res.Annotated() {
		out += " (" + res.Annotation + ")"
	}
	return out
}
