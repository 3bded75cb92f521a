package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"movierag/internal/config"
	"movierag/internal/logging"
	"movierag/internal/setup"
	"movierag/internal/tui"
)

func main() {
	envErr := godotenv.Load()

	var cfgPath, query string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; falls back to $"+config.ConfigPathEnv+", ./config.yaml, ~/.config/movierag/config.yaml)")
	flag.StringVar(&query, "query", "", "Question to ask (overrides the configured query)")
	flag.Parse()

	if cfgPath == "" {
		cfgPath = os.Getenv(config.ConfigPathEnv)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, cfgPath, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		logger.Debug().Err(envErr).Msg("no .env file loaded")
	}
	if cfgPath != "" {
		logger.Debug().Str("path", cfgPath).Msg("config loaded")
	}

	creds, err := cfg.ResolveCredentials()
	if err != nil {
		log.Fatal().Err(err).Msg("missing credentials")
	}

	if query == "" {
		query = cfg.Query
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.Wire(ctx, cfg, creds, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize pipeline")
	}
	defer deps.Close()

	if err := run(ctx, cfg, deps, query); err != nil {
		deps.Close()
		log.Fatal().Err(err).Msg("rag pipeline failed")
	}
}

func run(ctx context.Context, cfg *config.AppConfig, deps *setup.Dependencies, query string) error {
	logger := deps.Logger

	stats, err := deps.Service.Build(ctx, cfg.Data.Path, cfg.Data.RowLimit)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	logger.Info().
		Int("documents", stats.Documents).
		Int("chunks", stats.Chunks).
		Int("dimension", stats.Dimension).
		Msg("index ready")

	answer, err := deps.Service.Ask(ctx, query)
	if err != nil {
		return fmt.Errorf("answer query: %w", err)
	}

	if cfg.Output.Mode == "tui" {
		if _, err := tea.NewProgram(tui.New(query, answer), tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("tui: %w", err)
		}
		return nil
	}

	out, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	logger.Info().Msg("--- RAG System Output ---")
	fmt.Println(string(out))
	logger.Info().Msg("--- End of Output ---")
	return nil
}
