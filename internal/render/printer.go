package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/lifecycle"
	"github.com/couchcryptid/what-happened-on/internal/report"
)

// Printer writes outcomes as headed tables.
type Printer struct {
	out       io.Writer
	useColors bool
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, useColors bool) *Printer {
	return &Printer{out: out, useColors: useColors}
}

// BandColor maps an intensity band to its display color.
func BandColor(b domain.IntensityBand) *color.Color {
	switch b {
	case domain.BandVeryLow:
		return color.New(color.FgGreen)
	case domain.BandLow:
		return color.New(color.FgCyan)
	case domain.BandModerate:
		return color.New(color.FgYellow)
	case domain.BandHigh:
		return color.New(color.FgRed)
	case domain.BandVeryHigh:
		return color.New(color.FgRed, color.Bold)
	}
	return color.New(color.Reset)
}

func (p *Printer) paint(c *color.Color, s string) string {
	if !p.useColors {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

// Report prints every source of r in catalog order.
func (p *Printer) Report(r report.Report) error {
	d, err := domain.ParseDateKey(r.Date)
	if err != nil {
		return err
	}
	steps := []func() error{
		func() error { return p.News(d, r.News) },
		func() error { return p.Seismic(d, r.Seismic) },
		func() error { return p.Asteroids(d, r.Asteroids) },
		func() error { return p.Intensity(d, r.Intensity) },
	}
	for i, step := range steps {
		if i > 0 {
			fmt.Fprintln(p.out)
		}
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// header prints the source heading and reports whether records follow.
func (p *Printer) header(id domain.SourceID, d domain.DateKey, state lifecycle.State, message string) bool {
	title := Heading(id, d)
	fmt.Fprintf(p.out, "%s\n%s\n", p.paint(color.New(color.FgWhite, color.Bold), title), strings.Repeat("─", len([]rune(title))))

	switch state {
	case lifecycle.StateLoading:
		fmt.Fprintln(p.out, p.paint(color.New(color.Faint), "Loading..."))
	case lifecycle.StateError:
		fmt.Fprintln(p.out, p.paint(color.New(color.FgRed), message))
	case lifecycle.StateEmpty:
		fmt.Fprintln(p.out, message)
	case lifecycle.StateContent:
		return true
	}
	return false
}

// News prints a News outcome.
func (p *Printer) News(d domain.DateKey, out lifecycle.Outcome[domain.NewsArticle]) error {
	if !p.header(domain.SourceNews, d, out.State, out.Message) {
		return nil
	}
	rows := make([][]string, 0, len(out.Records))
	for _, a := range out.Records {
		rows = append(rows, []string{a.Headline, a.Summary, a.URL})
	}
	return p.table([]string{"Headline", "Summary", "Link"}, rows)
}

// Seismic prints a Seismic outcome.
func (p *Printer) Seismic(d domain.DateKey, out lifecycle.Outcome[domain.SeismicEvent]) error {
	if !p.header(domain.SourceSeismic, d, out.State, out.Message) {
		return nil
	}
	rows := make([][]string, 0, len(out.Records))
	for _, e := range out.Records {
		rows = append(rows, []string{e.Place, Magnitude(e.Magnitude), QuakeTime(e.OccurredAtEpochMs), e.DetailURL})
	}
	return p.table([]string{"Location", "Magnitude", "Time (UTC)", "Details"}, rows)
}

// Asteroids prints a NearEarthObject outcome.
func (p *Printer) Asteroids(d domain.DateKey, out lifecycle.Outcome[domain.CloseApproachObject]) error {
	if !p.header(domain.SourceAsteroids, d, out.State, out.Message) {
		return nil
	}
	rows := make([][]string, 0, len(out.Records))
	for _, a := range out.Records {
		hazard := p.paint(color.New(color.FgGreen), YesNo(a.Hazardous))
		if a.Hazardous {
			hazard = p.paint(color.New(color.FgRed), YesNo(a.Hazardous))
		}
		rows = append(rows, []string{
			a.Name,
			DiameterRange(a.MinDiameterMeters, a.MaxDiameterMeters),
			Thousands(a.MissDistanceKm) + " km",
			Thousands(a.VelocityKmPerHour) + " km/h",
			hazard,
		})
	}
	return p.table([]string{"Name", "Estimated Diameter", "Miss Distance", "Velocity", "Potentially Hazardous"}, rows)
}

// Intensity prints a GridCarbonIntensity outcome.
func (p *Printer) Intensity(d domain.DateKey, out lifecycle.Outcome[domain.IntensityInterval]) error {
	if !p.header(domain.SourceIntensity, d, out.State, out.Message) {
		return nil
	}
	rows := make([][]string, 0, len(out.Records))
	for _, iv := range out.Records {
		actual := "-"
		if iv.ActualGCO2PerKWh != nil {
			actual = Intensity(*iv.ActualGCO2PerKWh)
		}
		rows = append(rows, []string{
			IntervalLabel(iv.FromUTC, iv.ToUTC),
			Intensity(iv.ForecastGCO2PerKWh),
			actual,
			p.paint(BandColor(iv.Band), string(iv.Band)),
			generationMix(iv.GenerationMix),
		})
	}
	return p.table([]string{"Window", "Forecast", "Actual", "Index", "Generation Mix"}, rows)
}

func generationMix(mix []domain.FuelShare) string {
	parts := make([]string, 0, len(mix))
	for _, f := range mix {
		parts = append(parts, f.Fuel+": "+Percent(f.Percentage))
	}
	return strings.Join(parts, ", ")
}

// Sources prints the source catalog.
func (p *Printer) Sources(sources []domain.Source) error {
	rows := make([][]string, 0, len(sources))
	for _, s := range sources {
		rows = append(rows, []string{string(s.ID), s.Title, s.Description})
	}
	return p.table([]string{"ID", "Title", "Description"}, rows)
}

func (p *Printer) table(header []string, rows [][]string) error {
	table := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return table.Render()
}
