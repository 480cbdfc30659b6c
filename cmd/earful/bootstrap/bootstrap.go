// Package bootstrap wires configuration, logging, the DashScope client and the
// recording store for the earful subcommands.
package bootstrap

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/earful/pkg/config"
	"github.com/papercomputeco/earful/pkg/dashscope"
	"github.com/papercomputeco/earful/pkg/logger"
	"github.com/papercomputeco/earful/pkg/merkle"
	"github.com/papercomputeco/earful/pkg/transcriber"
)

// Persistent flag names registered on the root command.
const (
	FlagConfig = "config"
	FlagDebug  = "debug"
)

// Flags registered by AddConversationFlags.
const (
	FlagModel  = "model"
	FlagPrompt = "prompt"
	FlagSQLite = "sqlite"
)

// AddConversationFlags registers the flags shared by every command that calls
// the inference service.
func AddConversationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(FlagModel, "m", "", "Model identifier (env MODEL)")
	cmd.Flags().StringP(FlagPrompt, "p", "", "Text prompt sent with the audio (env PROMPT)")
	cmd.Flags().StringP(FlagSQLite, "s", "", "Record transcriptions in this SQLite database (env SQLITE_PATH)")
}

// LoadConfig loads the configuration and applies explicitly set flags.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(FlagConfig)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if debug, _ := cmd.Flags().GetBool(FlagDebug); debug {
		cfg.Debug = true
	}

	for name, field := range map[string]*string{
		FlagModel:  &cfg.Model,
		FlagPrompt: &cfg.Prompt,
		FlagSQLite: &cfg.SQLitePath,
	} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*field = f.Value.String()
		}
	}

	return cfg, nil
}

// App holds the wired components for a command run.
type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	Transcriber *transcriber.Transcriber
	Storer      merkle.Storer
}

// New validates cfg and builds the components. Close must be called when done.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.NewLogger(cfg.Debug)

	var storer merkle.Storer
	if cfg.SQLitePath != "" {
		s, err := merkle.NewSQLiteStorer(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open recording database: %w", err)
		}
		log.Debug("recording transcriptions", zap.String("path", cfg.SQLitePath))
		storer = s
	}

	client := dashscope.New(dashscope.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
	}, log)

	t := transcriber.New(transcriber.Config{
		Model:        cfg.Model,
		Prompt:       cfg.Prompt,
		SystemPrompt: cfg.SystemPrompt,
		Provider:     dashscope.ProviderName,
		Parameters:   cfg.Parameters(),
	}, client, storer, log)

	return &App{
		Config:      cfg,
		Logger:      log,
		Transcriber: t,
		Storer:      storer,
	}, nil
}

// Close releases the store and flushes the logger.
func (a *App) Close() error {
	_ = a.Logger.Sync()
	if a.Storer != nil {
		return a.Storer.Close()
	}
	return nil
}
