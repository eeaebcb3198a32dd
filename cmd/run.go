package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/bendanzhentan/eliza/internal/api"
	"github.com/bendanzhentan/eliza/internal/capture"
	"github.com/bendanzhentan/eliza/internal/completion"
	"github.com/bendanzhentan/eliza/internal/completion/langchain"
	"github.com/bendanzhentan/eliza/internal/config"
	"github.com/bendanzhentan/eliza/internal/cursor"
	"github.com/bendanzhentan/eliza/internal/decision"
	"github.com/bendanzhentan/eliza/internal/dispatch"
	"github.com/bendanzhentan/eliza/internal/generator"
	"github.com/bendanzhentan/eliza/internal/loop"
	"github.com/bendanzhentan/eliza/internal/memory"
	"github.com/bendanzhentan/eliza/internal/platform"
	"github.com/bendanzhentan/eliza/internal/thread"
)

// RunCommand returns the run command
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the agent's interaction loop",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Evaluate mentions without posting replies",
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single polling tick and exit",
			},
			&cli.BoolFlag{
				Name:  "capture",
				Usage: "Write prompt/response transcripts to disk",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Action: runAgent,
	}
}

func runAgent(c *cli.Context) error {
	logger := setupLogger(c.Bool("verbose"))

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Bool("capture") {
		capture.Enable()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	driver, err := buildDriver(cfg, store, c.Bool("dry-run"), logger)
	if err != nil {
		return err
	}

	if c.Bool("once") {
		cur, err := driver.LoadCursor()
		if err != nil {
			return err
		}
		if _, err := driver.Tick(ctx, cur); err != nil {
			return err
		}
		return nil
	}

	if cfg.Server.Listen != "" {
		server := api.NewServer(cfg.Server.Listen, driver, logger)
		go func() {
			if err := server.Start(); err != nil {
				logger.Error().Err(err).Msg("status server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("status server shutdown failed")
			}
		}()
	}

	identity := cfg.Identity()
	logger.Info().
		Str("handle", identity.Handle).
		Str("storage", cfg.Storage.Backend).
		Bool("dry_run", c.Bool("dry-run")).
		Msg("agent starting")

	scheduler := loop.NewScheduler(driver, cfg.MinInterval(), cfg.MaxInterval(), loop.RealClock(), logger)
	if err := scheduler.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	logger.Info().Msg("agent stopped")
	return nil
}

// openStore builds the memory backend the configuration names.
func openStore(ctx context.Context, cfg *config.Config) (memory.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memory.NewMemStore(), func() {}, nil
	default:
		pg, err := memory.NewPostgresStore(cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
		return pg, func() { pg.Close() }, nil
	}
}

// buildDriver wires the full tick pipeline from configuration.
func buildDriver(cfg *config.Config, store memory.Store, dryRun bool, logger zerolog.Logger) (*loop.Driver, error) {
	client := platform.NewHTTPClient(cfg.Platform.BaseURL, cfg.Platform.Token, cfg.Platform.RequestsPerSecond)

	provider, err := langchain.New(langchain.Options{
		APIKey:      cfg.Completion.APIKey,
		BaseURL:     cfg.Completion.BaseURL,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create completion provider: %w", err)
	}
	llm := completion.NewResilientWithDefaults(provider, logger)

	return loop.NewDriver(
		client,
		store,
		cursor.NewFileStore(cfg.Paths.CursorFile),
		thread.NewReconstructor(client, cfg.Loop.ThreadDepth, logger),
		decision.NewGate(llm, logger),
		generator.New(llm, logger),
		dispatch.NewDispatcher(client, store, cfg.Dispatch.MaxPostLength, dryRun, logger),
		cfg.Identity(),
		cfg.Platform.SearchLimit,
		logger,
	), nil
}

func setupLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
