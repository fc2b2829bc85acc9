// Package cmd implements the leadgen CLI commands.
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"leadgen/agent"
	"leadgen/config"
	"leadgen/driver"
	"leadgen/export"
	"leadgen/notify"
	"leadgen/tools"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "leadgen",
	Short:        "Find and qualify local small-business leads with an LLM agent",
	Long:         "leadgen asks a tool-using language model to find small businesses in a city, research them on the web, and write a structured lead report.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runLeadgen,
}

// reportedError marks a failure that has already been shown to the user.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default ./leadgen.yaml if present)")
	rootCmd.AddCommand(sheetsAuthCmd)
}

// Execute runs the root command.
func Execute() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}

func execute() error {
	err := rootCmd.Execute()
	var reported reportedError
	if err != nil && !errors.As(err, &reported) {
		rootCmd.PrintErrln("Error:", err)
	}
	return err
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(logger zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			logger.Info().Msg("shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func runLeadgen(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel).With().Str("run_id", uuid.NewString()).Logger()

	ctx, cancel := signalContext(logger)
	defer cancel()

	fetcher := tools.NewFetcher(cfg.FetchTimeout, logger)
	searcher := tools.NewDuckDuckGo(cfg.SearchURL, cfg.SearchTimeout, cfg.SearchRate, logger)

	registry := tools.NewRegistry()
	if err := driver.RegisterTools(registry, searcher, fetcher, cfg.OutputFile, logger); err != nil {
		return err
	}
	logger.Info().Strs("tools", registry.Names()).Str("output", cfg.OutputFile).Msg("registered tools")

	engine := agent.New(cfg.OllamaModel, cfg.OllamaURL, registry, agent.Options{
		APIKey:      cfg.LLMAPIKey,
		Temperature: cfg.Temperature,
		MaxTurns:    cfg.MaxTurns,
		Logger:      logger,
	})

	d := driver.New(engine, driver.Options{
		City:      cfg.City,
		CityName:  cfg.CityName(),
		LeadCount: cfg.LeadCount,
		Out:       cmd.OutOrStdout(),
		Sinks:     sinks(ctx, cfg, logger),
		Logger:    logger,
	})

	if _, err := d.Run(ctx); err != nil {
		return reportedError{err}
	}
	return nil
}

// sinks sets up the optional deliveries. A sink that cannot be set up is
// skipped with a warning.
func sinks(ctx context.Context, cfg *config.Config, logger zerolog.Logger) []driver.Sink {
	var out []driver.Sink

	if cfg.SheetsEnabled() {
		exporter := newSheetsExporter(cfg)
		if authURL, err := exporter.Init(ctx); err != nil {
			logger.Warn().Err(err).Msg("google sheets export disabled")
		} else if authURL != "" {
			logger.Warn().Msg("google sheets needs authentication; run `leadgen sheets-auth`")
		} else {
			out = append(out, exporter)
		}
	}

	if cfg.TelegramEnabled() {
		notifier, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, cfg.City)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram notifications disabled")
		} else {
			out = append(out, notifier)
		}
	}

	return out
}

func newSheetsExporter(cfg *config.Config) *export.SheetsExporter {
	return export.NewSheetsExporter(
		cfg.GoogleClientID,
		cfg.GoogleSecret,
		cfg.GoogleRedirectURL,
		cfg.GoogleTokenFile,
		cfg.SheetsSpreadsheetID,
		cfg.SheetsRange,
	)
}
