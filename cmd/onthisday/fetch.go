package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/lifecycle"
	"github.com/couchcryptid/what-happened-on/internal/render"
)

var (
	fetchSource string
	fetchJSON   bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [YYYY-MM-DD]",
	Short: "Show every source for a date (default today, UTC)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchSource, "source", "s", "", "only this source (see `onthisday sources`)")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print JSON instead of tables")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	date := domain.Today().String()
	if len(args) == 1 {
		date = args[0]
	}
	key, err := domain.ParseDateKey(date)
	if err != nil {
		return err
	}

	colors, err := useColors()
	if err != nil {
		return err
	}
	svc := newService(cfg, logger)
	out := cmd.OutOrStdout()
	printer := render.NewPrinter(out, colors)

	if fetchSource == "" {
		r, err := svc.Build(cmd.Context(), date)
		if err != nil {
			return err
		}
		if fetchJSON {
			return writeJSON(cmd, r)
		}
		return printer.Report(r)
	}

	outcome, err := svc.Outcome(cmd.Context(), date, domain.SourceID(fetchSource))
	if err != nil {
		return err
	}
	if fetchJSON {
		return writeJSON(cmd, outcome)
	}
	switch o := outcome.(type) {
	case lifecycle.Outcome[domain.NewsArticle]:
		return printer.News(key, o)
	case lifecycle.Outcome[domain.SeismicEvent]:
		return printer.Seismic(key, o)
	case lifecycle.Outcome[domain.CloseApproachObject]:
		return printer.Asteroids(key, o)
	case lifecycle.Outcome[domain.IntensityInterval]:
		return printer.Intensity(key, o)
	}
	return fmt.Errorf("unexpected outcome type %T", outcome)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
