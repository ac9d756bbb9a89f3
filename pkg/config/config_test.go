package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	return &Config{
		Dictionary: DictionaryConfig{Path: filepath.Join("data", "dict.txt"), Watch: true},
		Phonetic:   PhoneticConfig{Script: "hiragana"},
		Relay:      RelayConfig{Workers: 4, Queue: 64, Color: true},
		History: HistoryConfig{
			Enabled:       true,
			Path:          filepath.Join("data", "chatall.db"),
			BatchSize:     50,
			FlushInterval: time.Second,
		},
		JMdict: JMdictConfig{Path: "jmdict-eng-common.json"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name              string
		configContent     string
		env               map[string]string
		wantErr           bool
		want              func() *Config
		wantErrorContains []string
	}{
		{
			name: "defaults without config file",
			want: defaultConfig,
		},
		{
			name: "valid config file with custom values",
			configContent: `dictionary:
  path: custom/dict.txt
  watch: false
phonetic:
  script: Katakana
relay:
  workers: 2
  queue: 8
  color: false
history:
  enabled: false
  flush_interval: 250ms
log:
  level: debug
  format: json
`,
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Dictionary = DictionaryConfig{Path: "custom/dict.txt"}
				cfg.Phonetic.Script = "katakana"
				cfg.Relay = RelayConfig{Workers: 2, Queue: 8}
				cfg.History.Enabled = false
				cfg.History.FlushInterval = 250 * time.Millisecond
				cfg.Log = LogConfig{Level: "debug", Format: "json"}
				return cfg
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"CHATALL_DICTIONARY_PATH": "/srv/dict.txt",
				"CHATALL_RELAY_WORKERS":   "16",
			},
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Dictionary.Path = "/srv/dict.txt"
				cfg.Relay.Workers = 16
				return cfg
			},
		},
		{
			name:              "invalid YAML format",
			configContent:     "dictionary: [unclosed",
			wantErr:           true,
			wantErrorContains: []string{"configuration file found but could not be read"},
		},
		{
			name: "invalid values",
			configContent: `phonetic:
  script: romaji
relay:
  workers: 0
`,
			wantErr:           true,
			wantErrorContains: []string{"invalid configuration", "script must be one of [hiragana katakana]", "workers must be 1 or greater"},
		},
		{
			name: "dictionary path under a regular file",
			env: map[string]string{
				"CHATALL_DICTIONARY_PATH": filepath.Join("config_test.go", "dict.txt"),
				"CHATALL_HISTORY_PATH":    filepath.Join("config_test.go", "chatall.db"),
			},
			wantErr: true,
			wantErrorContains: []string{
				"dictionary.path must be inside a directory, but config_test.go is not one",
				"history.path must be inside a directory, but config_test.go is not one",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			configFile := ""
			if tt.configContent != "" {
				configFile = filepath.Join(t.TempDir(), "chatall.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte(tt.configContent), 0o644))
			}

			loader, err := NewConfigLoader(configFile)
			require.NoError(t, err)
			loader.envFile = filepath.Join(t.TempDir(), ".env")

			got, err := loader.Load()
			if tt.wantErr {
				require.Error(t, err)
				for _, s := range tt.wantErrorContains {
					assert.Contains(t, err.Error(), s)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want(), got)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CHATALL_PHONETIC_SCRIPT=katakana\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CHATALL_PHONETIC_SCRIPT") })

	loader, err := NewConfigLoader("")
	require.NoError(t, err)
	loader.envFile = envFile

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "katakana", cfg.Phonetic.Script)
}

func TestLogConfigNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))

	logger.Warn("saved", "entries", 3)
	assert.Contains(t, buf.String(), `"msg":"saved"`)
	assert.Contains(t, buf.String(), `"entries":3`)

	assert.Equal(t, slog.LevelDebug, LogConfig{Level: "debug"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: "bogus"}.SlogLevel())
}
