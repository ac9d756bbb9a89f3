package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	dir        string
	configFile string
}

func (e testEnv) dictPath() string { return filepath.Join(e.dir, "dict.txt") }

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	configFile := filepath.Join(dir, "chatall.yaml")
	content := fmt.Sprintf(`dictionary:
  path: %s
  watch: false
relay:
  workers: 1
  color: false
history:
  path: %s
log:
  level: error
`, filepath.Join(dir, "dict.txt"), filepath.Join(dir, "chatall.db"))
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))
	return testEnv{dir: dir, configFile: configFile}
}

func (e testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", e.configFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := newRootCommand()
	assert.Equal(t, "chatall", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "convert", "dict", "history"})
}

func TestScript_Set(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    Script
		wantErr bool
	}{
		{name: "hiragana", value: "hiragana", want: ScriptHiragana},
		{name: "case-insensitive", value: "Katakana", want: ScriptKatakana},
		{name: "invalid", value: "romaji", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Script
			err := s.Set(tt.value)
			if tt.wantErr {
				assert.ErrorContains(t, err, "invalid script")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestScript_Resolve(t *testing.T) {
	var unset Script
	assert.EqualValues(t, "katakana", unset.resolve("katakana"))
	assert.EqualValues(t, "hiragana", ScriptHiragana.resolve("katakana"))
	assert.Equal(t, "Script", unset.Type())
}

func TestDictCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "dict", "list")
	require.NoError(t, err)
	assert.Equal(t, "Dictionary is empty.\n", out)

	out, err = env.run(t, "", "dict", "add", "KYOU", "今日")
	require.NoError(t, err)
	assert.Equal(t, "Added: kyou -> 今日\n", out)

	data, err := os.ReadFile(env.dictPath())
	require.NoError(t, err)
	assert.Equal(t, "kyou 今日\n", string(data))

	out, err = env.run(t, "", "dict", "add", "ohayou", "お早う", "ございます")
	require.NoError(t, err)
	assert.Equal(t, "Added: ohayou -> お早う ございます\n", out)

	out, err = env.run(t, "", "dict", "list")
	require.NoError(t, err)
	assert.Equal(t, "Dictionary entries (2):\nkyou -> 今日\nohayou -> お早う ございます\n", out)

	out, err = env.run(t, "", "dict", "remove", "neko")
	require.NoError(t, err)
	assert.Equal(t, "Key not found: neko\n", out)

	out, err = env.run(t, "", "dict", "remove", "ohayou")
	require.NoError(t, err)
	assert.Equal(t, "Removed: ohayou\n", out)

	_, err = env.run(t, "", "dict", "add", "kyou")
	assert.Error(t, err)
}

func TestDictImport(t *testing.T) {
	env := newTestEnv(t)
	jmdictPath := filepath.Join(env.dir, "jmdict.json")
	words := `{"words": [
	  {"id": "1", "kanji": [{"text": "今日", "common": true}], "kana": [{"text": "きょう", "common": true}], "sense": [{"gloss": [{"text": "today"}]}]},
	  {"id": "2", "kanji": [{"text": "天気", "common": true}], "kana": [{"text": "てんき", "common": true}]}
	]}`
	require.NoError(t, os.WriteFile(jmdictPath, []byte(words), 0o644))
	require.NoError(t, os.WriteFile(env.dictPath(), []byte("kyou きょう\n"), 0o644))

	out, err := env.run(t, "", "dict", "import", "--jmdict", jmdictPath, "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("kyou -> 今日 (today)\ntenki -> 天気\nWould import up to 2 candidates from %s.\n", jmdictPath), out)
	data, err := os.ReadFile(env.dictPath())
	require.NoError(t, err)
	assert.Equal(t, "kyou きょう\n", string(data))

	out, err = env.run(t, "", "dict", "import", "--jmdict", jmdictPath)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Imported 1 of 2 candidates from %s.\n", jmdictPath), out)

	out, err = env.run(t, "", "dict", "list")
	require.NoError(t, err)
	assert.Equal(t, "Dictionary entries (2):\nkyou -> きょう\ntenki -> 天気\n", out)

	_, err = env.run(t, "", "dict", "import", "--jmdict", jmdictPath, "--overwrite")
	require.NoError(t, err)
	out, err = env.run(t, "", "dict", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "kyou -> 今日\n")
}

func TestConvertCommand(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.dictPath(), []byte("kyou 今日\n"), 0o644))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "dictionary hit", args: []string{"kyou"}, want: "kyou (今日)\n"},
		{name: "phonetic fallback", args: []string{"konnichiha"}, want: "konnichiha (こんにちは)\n"},
		{name: "katakana flag", args: []string{"--script", "katakana", "konnichiha"}, want: "konnichiha (コンニチハ)\n"},
		{name: "not romaji", args: []string{"Hello!"}, want: "Hello!\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.run(t, "", append([]string{"convert"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestServeAndHistory(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.dictPath(), []byte("kyou 今日\n"), 0o644))

	stdin := strings.Join([]string{
		"lobby\talice\tkyou",
		"lobby\tbob\t/dict add neko 猫",
		"\tcarol\tno server",
		"not a relay line",
		"survival\talice\tneko",
		"survival\tbob\tHello!",
	}, "\n") + "\n"

	out, err := env.run(t, stdin, "serve")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"[lobby] alice: kyou (今日)",
		"Added: neko -> 猫",
		"[survival] alice: neko (猫)",
		"[survival] bob: Hello!",
	}, "\n")+"\n", out)

	data, err := os.ReadFile(env.dictPath())
	require.NoError(t, err)
	assert.Equal(t, "kyou 今日\nneko 猫\n", string(data))

	out, err = env.run(t, "", "history", "--context", "survival")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "[survival] alice: neko (猫)"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "[survival] bob: Hello!"), lines[1])

	out, err = env.run(t, "", "history", "--stats")
	require.NoError(t, err)
	assert.Equal(t, "alice\t2 messages\t2 annotated\nbob\t1 messages\t0 annotated\n", out)
}

func TestParseLine(t *testing.T) {
	line, ok := parseLine("lobby\tsteve\thello\tthere\r")
	require.True(t, ok)
	assert.Equal(t, "lobby", line.Context)
	assert.Equal(t, "steve", line.Speaker)
	assert.Equal(t, "hello\tthere", line.Text)

	_, ok = parseLine("lobby steve hello")
	assert.False(t, ok)
}
