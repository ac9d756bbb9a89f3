package main

import (
	"fmt"
	"log/slog"

	"github.com/japaniel/chatall/pkg/admin"
	"github.com/japaniel/chatall/pkg/chatall"
	"github.com/japaniel/chatall/pkg/config"
	"github.com/japaniel/chatall/pkg/dictionary"
	"github.com/japaniel/chatall/pkg/kana"
	"github.com/japaniel/chatall/pkg/reading"
)

// app is the dictionary-backed core shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *dictionary.Store
	admin    *admin.Admin
	pipeline *chatall.Pipeline
}

// newApp opens the dictionary file. An unreadable file is not fatal: the
// store starts with whatever was read and the failure is already logged.
// With learn set the reading analyzer is loaded so Learn works.
func newApp(cfg *config.Config, logger *slog.Logger, script kana.Script, learn bool) (*app, error) {
	store, err := dictionary.Open(cfg.Dictionary.Path, dictionary.WithLogger(logger))
	if err != nil && !dictionary.IsPersistence(err) {
		return nil, err
	}

	adminOpts := []admin.Option{admin.WithLogger(logger)}
	if learn {
		analyzer, err := reading.NewAnalyzer()
		if err != nil {
			return nil, fmt.Errorf("failed to create reading analyzer: %w", err)
		}
		adminOpts = append(adminOpts, admin.WithKeyDeriver(analyzer))
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		admin:    admin.New(store, adminOpts...),
		pipeline: chatall.NewPipeline(store, kana.NewConverter(script)),
	}, nil
}
