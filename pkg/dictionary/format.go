package dictionary

import (
	"bufio"
	"io"
	"strings"
)

// commentPrefix marks a line that Parse ignores. Only an unindented marker
// counts; "  # x" is read as the entry "#" -> "x".
const commentPrefix = "#"

// maxLineSize bounds a single dictionary line.
const maxLineSize = 1024 * 1024

// Parse reads dictionary lines from r. Blank and comment lines are skipped,
// as is any line that does not split into a key and a value. Keys are folded.
// On a read error the entries parsed so far are returned with the error.
func Parse(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		key, value, ok := splitLine(sc.Text())
		if !ok {
			continue
		}
		out[Fold(key)] = value
	}
	return out, sc.Err()
}

// splitLine splits a line into key and rest-of-line value on the first run of
// whitespace after trimming.
func splitLine(line string) (key, value string, ok bool) {
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentPrefix) {
		return "", "", false
	}
	line = strings.TrimFunc(line, isControlOrSpace)
	i := strings.IndexFunc(line, isFieldSpace)
	if i < 0 {
		return "", "", false
	}
	key = line[:i]
	value = strings.TrimLeftFunc(line[i:], isFieldSpace)
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

// isControlOrSpace matches what a line trim removes: space and every ASCII
// control character.
func isControlOrSpace(r rune) bool { return r <= ' ' }

// isFieldSpace matches the separators between key and value.
func isFieldSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// writeEntries serializes entries as "key value" lines.
func writeEntries(w io.Writer, entries []Entry) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, e := range entries {
		m, err := bw.WriteString(e.Key + " " + e.Value + "\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
