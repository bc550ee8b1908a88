// Command validate checks the live upstream APIs against the shapes and
// ordering rules the source adapters rely on. It resolves every source for a
// handful of dates and reports, per phase, anything that drifted: failed
// requests, absorbed shape anomalies, or records that break an ordering or
// range rule.
//
// Usage:
//
//	go run ./cmd/validate -dates 2024-03-20,2023-12-25
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/couchcryptid/what-happened-on/internal/app"
	"github.com/couchcryptid/what-happened-on/internal/config"
	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/lifecycle"
	"github.com/couchcryptid/what-happened-on/internal/observability"
	"github.com/couchcryptid/what-happened-on/internal/report"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dates := flag.String("dates", "2024-03-20", "comma-separated YYYY-MM-DD dates to check")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "FATAL: load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if code := run(ctx, cfg, strings.Split(*dates, ",")); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, cfg *config.Config, dates []string) int {
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := app.NewService(cfg, metrics, logger, nil)

	fmt.Println("=== Upstream Contract Validation ===")
	fmt.Println()

	var reports []report.Report
	for _, d := range dates {
		d = strings.TrimSpace(d)
		r, err := svc.Build(ctx, d)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", d, err)
			return 1
		}
		fmt.Printf("  %s  %s\n", d, summarize(r))
		reports = append(reports, r)
	}

	phases := []*phase{
		validateReachability(reports),
		validateShapes(metrics),
		validateNews(reports),
		validateSeismic(reports),
		validateAsteroids(reports),
		validateIntensity(reports),
		validateDateRejection(ctx, svc),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func summarize(r report.Report) string {
	parts := make([]string, 0, len(domain.Sources))
	states := r.States()
	for _, s := range domain.Sources {
		parts = append(parts, fmt.Sprintf("%s=%s", s.ID, states[s.ID]))
	}
	return strings.Join(parts, " ")
}

// ── Phases ──

func validateReachability(reports []report.Report) *phase {
	p := &phase{name: "Phase 1: Sources reachable"}
	for _, r := range reports {
		check := func(id domain.SourceID, state lifecycle.State, err error) {
			if state == lifecycle.StateError {
				p.errorf("%s %s: %v", r.Date, id, err)
			}
		}
		check(domain.SourceNews, r.News.State, r.News.Err)
		check(domain.SourceSeismic, r.Seismic.State, r.Seismic.Err)
		check(domain.SourceAsteroids, r.Asteroids.State, r.Asteroids.Err)
		check(domain.SourceIntensity, r.Intensity.State, r.Intensity.Err)
	}
	return p
}

func validateShapes(m *observability.Metrics) *phase {
	p := &phase{name: "Phase 2: Response shapes match"}
	for _, s := range domain.Sources {
		var metric dto.Metric
		if err := m.ShapeAnomalies.WithLabelValues(string(s.ID)).Write(&metric); err != nil {
			p.errorf("%s: read counter: %v", s.ID, err)
			continue
		}
		if n := metric.GetCounter().GetValue(); n > 0 {
			p.errorf("%s: %.0f response(s) did not match the expected shape", s.ID, n)
		}
	}
	return p
}

func validateNews(reports []report.Report) *phase {
	p := &phase{name: "Phase 3: News limited to five"}
	for _, r := range reports {
		if n := len(r.News.Records); n > 5 {
			p.errorf("%s: %d articles", r.Date, n)
		}
	}
	return p
}

func validateSeismic(reports []report.Report) *phase {
	p := &phase{name: "Phase 4: Seismic magnitude floor and day window"}
	for _, r := range reports {
		key, _ := domain.ParseDateKey(r.Date)
		start, end := key.StartOfDay().UnixMilli(), key.EndOfDay().UnixMilli()
		for i, e := range r.Seismic.Records {
			if e.Magnitude < 4.0 {
				p.errorf("%s event %d (%s): magnitude %.1f below floor", r.Date, i, e.Place, e.Magnitude)
			}
			if e.OccurredAtEpochMs < start || e.OccurredAtEpochMs > end {
				p.errorf("%s event %d (%s): outside the UTC day", r.Date, i, e.Place)
			}
		}
	}
	return p
}

func validateAsteroids(reports []report.Report) *phase {
	p := &phase{name: "Phase 5: Asteroid measurements plausible"}
	for _, r := range reports {
		for _, a := range r.Asteroids.Records {
			if a.MinDiameterMeters <= 0 || a.MinDiameterMeters > a.MaxDiameterMeters {
				p.errorf("%s %s: diameter range %.1f-%.1f", r.Date, a.Name, a.MinDiameterMeters, a.MaxDiameterMeters)
			}
			if a.MissDistanceKm <= 0 || a.VelocityKmPerHour <= 0 {
				p.errorf("%s %s: non-positive distance or velocity", r.Date, a.Name)
			}
		}
	}
	return p
}

func validateIntensity(reports []report.Report) *phase {
	p := &phase{name: "Phase 6: Intensity ordered within the day"}
	for _, r := range reports {
		prev := ""
		for _, iv := range r.Intensity.Records {
			if !strings.HasPrefix(iv.FromUTC, r.Date) && !strings.HasPrefix(iv.ToUTC, r.Date) {
				p.errorf("%s: interval %s-%s belongs to another day", r.Date, iv.FromUTC, iv.ToUTC)
			}
			_, clock, _ := strings.Cut(iv.FromUTC, "T")
			if clock < prev {
				p.errorf("%s: %s listed after %s", r.Date, iv.FromUTC, prev)
			}
			prev = clock
			if !iv.Band.Known() {
				p.errorf("%s %s: unknown band %q", r.Date, iv.FromUTC, iv.Band)
			}
		}
	}
	return p
}

func validateDateRejection(ctx context.Context, svc *report.Service) *phase {
	p := &phase{name: "Phase 7: Impossible dates rejected"}
	view := svc.NewView()
	defer view.Close()
	for _, d := range []string{"2024-13-45", "2024-02-30", "2023-02-29", "2024/03/20"} {
		if _, err := svc.Build(ctx, d); err == nil {
			p.errorf("%s accepted", d)
		}
		r, err := view.Load(ctx, d)
		if err != nil {
			p.errorf("%s: load: %v", d, err)
			continue
		}
		for _, src := range domain.Sources {
			if kind := errorKind(r, src.ID); kind != domain.KindInvalidDate.String() {
				p.errorf("%s %s: error kind %q, want %q", d, src.ID, kind, domain.KindInvalidDate)
			}
		}
	}
	return p
}

func errorKind(r report.Report, id domain.SourceID) string {
	switch id {
	case domain.SourceNews:
		return r.News.ErrorKind
	case domain.SourceSeismic:
		return r.Seismic.ErrorKind
	case domain.SourceAsteroids:
		return r.Asteroids.ErrorKind
	case domain.SourceIntensity:
		return r.Intensity.ErrorKind
	}
	return ""
}
