// Package config loads chatall settings from chatall.yaml, CHATALL_*
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CHATALL"

type Config struct {
	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	Phonetic   PhoneticConfig   `mapstructure:"phonetic"`
	Relay      RelayConfig      `mapstructure:"relay"`
	History    HistoryConfig    `mapstructure:"history"`
	JMdict     JMdictConfig     `mapstructure:"jmdict"`
	Log        LogConfig        `mapstructure:"log"`
}

type DictionaryConfig struct {
	Path  string `mapstructure:"path" validate:"required,parentdir"`
	Watch bool   `mapstructure:"watch"`
}

type PhoneticConfig struct {
	Script string `mapstructure:"script" validate:"oneof=hiragana katakana"`
}

type RelayConfig struct {
	Workers int  `mapstructure:"workers" validate:"min=1"`
	Queue   int  `mapstructure:"queue" validate:"min=0"`
	Color   bool `mapstructure:"color"`
}

type HistoryConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Path          string        `mapstructure:"path" validate:"required_if=Enabled true,parentdir"`
	BatchSize     int           `mapstructure:"batch_size" validate:"min=1"`
	FlushInterval time.Duration `mapstructure:"flush_interval" validate:"gt=0"`
}

type JMdictConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
	envFile    string
}

// NewConfigLoader prepares a loader. An empty configFile searches for
// chatall.yaml in the working directory and $HOME/.config/chatall.
func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("chatall")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/chatall")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
		envFile:    ".env",
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	// Variables already present in the environment take precedence over .env.
	if err := godotenv.Load(loader.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", loader.envFile, err)
	}

	v := loader.viper
	v.SetDefault("dictionary.path", filepath.Join("data", "dict.txt"))
	v.SetDefault("dictionary.watch", true)
	v.SetDefault("phonetic.script", "hiragana")
	v.SetDefault("relay.workers", 4)
	v.SetDefault("relay.queue", 64)
	v.SetDefault("relay.color", true)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", filepath.Join("data", "chatall.db"))
	v.SetDefault("history.batch_size", 50)
	v.SetDefault("history.flush_interval", time.Second)
	v.SetDefault("jmdict.path", "jmdict-eng-common.json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	cfg.Phonetic.Script = strings.ToLower(cfg.Phonetic.Script)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := loader.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
