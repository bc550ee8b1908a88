package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/render"
	"github.com/couchcryptid/what-happened-on/internal/report"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Read dates from stdin and show each one as it settles",
	Long: `browse reads one date per line. Entering a new date while the previous
one is still loading abandons the previous one; only the latest date is shown.`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

type browseResult struct {
	report report.Report
	err    error
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	colors, err := useColors()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	printer := render.NewPrinter(out, colors)

	view := newService(cfg, logger).NewView()
	defer view.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "Enter %s (YYYY-MM-DD):\n", domain.SuggestionAt(domain.Clock().Now()))

	dates := scanLines(ctx, cmd.InOrStdin())
	var settled <-chan browseResult
	for {
		select {
		case <-ctx.Done():
			return nil
		case date, ok := <-dates:
			if !ok {
				if settled == nil {
					return nil
				}
				dates = nil
				continue
			}
			if !domain.IsValidCalendarDate(date) {
				fmt.Fprintf(out, "%s: %v\n", date, domain.ErrInvalidDate)
				continue
			}
			view.Select(ctx, date)
			settled = waitAsync(ctx, view)
		case res := <-settled:
			settled = nil
			if res.err != nil {
				return res.err
			}
			if err := printer.Report(res.report); err != nil {
				return err
			}
			if dates == nil {
				return nil
			}
		}
	}
}

func waitAsync(ctx context.Context, view *report.View) <-chan browseResult {
	ch := make(chan browseResult, 1)
	go func() {
		r, err := view.Wait(ctx)
		ch <- browseResult{report: r, err: err}
	}()
	return ch
}

// scanLines sends each non-blank trimmed line of r until EOF or ctx ends.
func scanLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			select {
			case ch <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
