package admin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/japaniel/chatall/pkg/dictionary"
)

const (
	usageRoot   = "Usage: /dict add|remove|list|learn [key] [value]"
	usageAdd    = "Usage: /dict add [romaji] [japanese]"
	usageRemove = "Usage: /dict remove [romaji]"
	usageLearn  = "Usage: /dict learn [japanese]"
	msgUnknown  = "Unknown subcommand. Use: add, remove, list, learn"
	msgNoPlayer = "This command is only for players."
	msgDenied   = "You do not have permission to use this command."
	msgEmpty    = "Dictionary is empty."
	msgNotSaved = "Warning: the dictionary could not be saved; the change is active until restart."
)

// Command is the text front end of Admin, as typed in chat after "/dict".
type Command struct {
	admin *Admin
	// Allow decides whether speaker may edit the dictionary. nil allows everyone.
	Allow func(speaker string) bool
}

// NewCommand returns a Command for admin.
func NewCommand(admin *Admin) *Command {
	return &Command{admin: admin}
}

// Execute runs one command for speaker and returns the lines to send back.
// Failures are reported in the response, never as an error.
func (c *Command) Execute(speaker string, args []string) []string {
	if speaker == "" {
		return []string{msgNoPlayer}
	}
	if c.Allow != nil && !c.Allow(speaker) {
		return []string{msgDenied}
	}
	if len(args) == 0 {
		return []string{usageRoot}
	}

	switch strings.ToLower(args[0]) {
	case "add":
		return c.add(args[1:])
	case "remove":
		return c.remove(args[1:])
	case "list":
		return c.list()
	case "learn":
		return c.learn(args[1:])
	default:
		return []string{msgUnknown}
	}
}

func (c *Command) add(args []string) []string {
	if len(args) < 2 {
		return []string{usageAdd}
	}
	key, value := args[0], strings.Join(args[1:], " ")
	_, err := c.admin.AddEntry(key, value)
	if err != nil && !dictionary.IsPersistence(err) {
		return []string{usageAdd}
	}
	return withSaveWarning([]string{fmt.Sprintf("Added: %s -> %s", dictionary.Fold(key), value)}, err)
}

func (c *Command) remove(args []string) []string {
	if len(args) < 1 {
		return []string{usageRemove}
	}
	key := dictionary.Fold(args[0])
	err := c.admin.RemoveEntry(key)
	switch {
	case errors.Is(err, dictionary.ErrNotFound):
		return []string{"Key not found: " + key}
	case err != nil && !dictionary.IsPersistence(err):
		return []string{usageRemove}
	}
	return withSaveWarning([]string{"Removed: " + key}, err)
}

func (c *Command) list() []string {
	entries := c.admin.ListEntries()
	if len(entries) == 0 {
		return []string{msgEmpty}
	}
	out := make([]string, 0, len(entries)+1)
	out = append(out, fmt.Sprintf("Dictionary entries (%d):", len(entries)))
	for _, e := range entries {
		out = append(out, e.Key+" -> "+e.Value)
	}
	return out
}

func (c *Command) learn(args []string) []string {
	if len(args) < 1 {
		return []string{usageLearn}
	}
	value := strings.Join(args, " ")
	key, _, err := c.admin.Learn(value)
	switch {
	case errors.Is(err, ErrLearnUnavailable):
		return []string{"Learning is not available on this server."}
	case err != nil && !dictionary.IsPersistence(err):
		return []string{"Could not derive a romaji key for: " + value}
	}
	return withSaveWarning([]string{fmt.Sprintf("Added: %s -> %s", key, value)}, err)
}

func withSaveWarning(lines []string, err error) []string {
	if dictionary.IsPersistence(err) {
		return append(lines, msgNotSaved)
	}
	return lines
}
