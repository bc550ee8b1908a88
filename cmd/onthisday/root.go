package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/what-happened-on/internal/app"
	"github.com/couchcryptid/what-happened-on/internal/config"
	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/observability"
	"github.com/couchcryptid/what-happened-on/internal/report"
)

// dateService is the part of report.Service the CLI uses.
type dateService interface {
	Build(ctx context.Context, date string) (report.Report, error)
	Outcome(ctx context.Context, date string, id domain.SourceID) (any, error)
	NewView() *report.View
}

var (
	verbose   bool
	colorMode string
	cfg       *config.Config
	logger    *slog.Logger

	// newService is replaced in tests.
	newService = func(cfg *config.Config, logger *slog.Logger) dateService {
		return app.NewService(cfg, observability.NewMetricsWith(prometheus.NewRegistry()), logger, nil)
	}
)

var rootCmd = &cobra.Command{
	Use:   "onthisday",
	Short: "See what happened on a date",
	Long: `onthisday looks up a calendar date across four public data sources:
NY Times articles, USGS earthquakes, NASA near-Earth objects and GB grid
carbon intensity.

Example usage:
  onthisday fetch 2024-03-20                 # All sources
  onthisday fetch 2024-03-20 -s asteroids    # One source
  onthisday browse                           # Read dates from stdin
  onthisday sources                          # List sources
  onthisday suggest                          # Need a date?`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig()
	},
}

// Execute runs the root command; ctx cancels in-flight source requests.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log source requests to stderr")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "color output: auto, always, or never")
}

func initConfig() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

func useColors() (bool, error) {
	switch colorMode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false, nil
		}
		return os.Getenv("TERM") != "dumb", nil
	}
	return false, fmt.Errorf("invalid color mode %q: must be auto, always, or never", colorMode)
}
