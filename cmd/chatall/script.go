package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/japaniel/chatall/pkg/kana"
)

// Script is the --script flag. Empty means "use the configured script".
type Script string

func (s *Script) Set(val string) error {
	for _, script := range allScripts {
		if strings.EqualFold(val, string(script)) {
			*s = script
			return nil
		}
	}
	return fmt.Errorf("invalid script: %s", val)
}

func (s Script) String() string {
	return string(s)
}

func (s *Script) Type() string {
	return "Script"
}

const (
	ScriptHiragana Script = Script(kana.Hiragana)
	ScriptKatakana Script = Script(kana.Katakana)
)

var (
	_          pflag.Value = (*Script)(nil)
	allScripts             = []Script{ScriptHiragana, ScriptKatakana}
)

// resolve returns the flag value, or configured when the flag was not set.
func (s Script) resolve(configured string) kana.Script {
	if s == "" {
		return kana.Script(configured)
	}
	return kana.Script(s)
}
