package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/campaign-copy/internal/compliance"
	"github.com/jonathan/campaign-copy/internal/config"
	"github.com/jonathan/campaign-copy/internal/db"
	"github.com/jonathan/campaign-copy/internal/llm"
	"github.com/jonathan/campaign-copy/internal/logger"
	"github.com/jonathan/campaign-copy/internal/prompting"
	"github.com/jonathan/campaign-copy/internal/reference"
)

// app holds what every command needs after configuration is resolved
type app struct {
	cfg       config.Config
	logger    zerolog.Logger
	library   *reference.Library
	catalog   *compliance.Catalog
	evaluator *compliance.Evaluator
}

// loadApp merges the config file, persistent flags and environment
func loadApp(cmd *cobra.Command) (*app, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if err := loaded.Validate(); err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if flags.Changed("provider") {
		cfg.Provider = strings.ToLower(provider)
	}
	if flags.Changed("model") {
		cfg.Model = model
	}

	cfg = cfg.MergeWithDefaults(config.FromEnv())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(logger.Options{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Component: "copy_agent",
		Writer:    cmd.ErrOrStderr(),
	})

	library, err := reference.Load()
	if err != nil {
		return nil, &config.ConfigurationError{Message: "failed to load reference data", Cause: err}
	}
	catalog, err := compliance.Load()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    log,
		library:   library,
		catalog:   catalog,
		evaluator: compliance.NewEvaluator(catalog),
	}, nil
}

// newClient resolves the credential and builds the generation client
func (a *app) newClient(ctx context.Context) (llm.Client, error) {
	apiKey, err := a.cfg.ResolveAPIKey()
	if err != nil {
		return nil, err
	}

	return llm.NewClient(ctx, &llm.Config{
		Provider:        llm.Provider(a.cfg.Provider),
		Model:           a.cfg.Model,
		BaseURL:         a.cfg.BaseURL,
		MaxOutputTokens: a.cfg.MaxOutputTokens,
	}, apiKey, a.logger)
}

// composer builds prompts from the loaded reference data and rules
func (a *app) composer() *prompting.Composer {
	return prompting.NewComposer(a.library, a.catalog)
}

// openDB connects when a database URL is configured; it returns nil otherwise
func (a *app) openDB(ctx context.Context) (*db.DB, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, nil
	}

	database, err := db.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return database, nil
}

// splitList parses a comma-separated flag value, dropping empty entries
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
