// Package render formats date outcomes for terminal output.
package render

import (
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/couchcryptid/what-happened-on/internal/domain"
)

// numbers groups digits the way en-US locale formatting does.
var numbers = message.NewPrinter(language.English)

// LongDate formats a date heading, e.g. "March 20, 2024".
func LongDate(d domain.DateKey) string {
	return d.Time().Format("January 2, 2006")
}

// Heading returns the page title for a source on a date.
func Heading(id domain.SourceID, d domain.DateKey) string {
	switch id {
	case domain.SourceNews:
		return "NY Times Articles from " + LongDate(d)
	case domain.SourceSeismic:
		return "Seismic Activity on " + LongDate(d)
	case domain.SourceAsteroids:
		return "Near-Earth Objects on " + LongDate(d)
	case domain.SourceIntensity:
		return "GB Carbon Intensity on " + LongDate(d)
	}
	return string(id) + " on " + LongDate(d)
}

// instantLayouts are the shapes the Carbon Intensity API uses for from/to.
var instantLayouts = []string{
	"2006-01-02T15:04Z07:00",
	time.RFC3339,
}

// ClockUTC renders an ISO-8601 instant as HH:mm in UTC. Unparseable input is
// returned unchanged.
func ClockUTC(instant string) string {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, instant); err == nil {
			return t.UTC().Format("15:04")
		}
	}
	return instant
}

// IntervalLabel renders an intensity window, e.g. "00:00 - 00:30 UTC".
func IntervalLabel(from, to string) string {
	return ClockUTC(from) + " - " + ClockUTC(to) + " UTC"
}

// QuakeTime renders an epoch-millisecond instant as HH:mm:ss UTC.
func QuakeTime(epochMs int64) string {
	return time.UnixMilli(epochMs).UTC().Format("15:04:05")
}

// DiameterRange renders rounded diameters, e.g. "100 - 200 meters".
func DiameterRange(minMeters, maxMeters float64) string {
	return strconv.FormatFloat(math.Round(minMeters), 'f', 0, 64) + " - " +
		strconv.FormatFloat(math.Round(maxMeters), 'f', 0, 64) + " meters"
}

// Thousands rounds v and groups its digits with commas, e.g. 1000000 → "1,000,000".
func Thousands(v float64) string {
	return numbers.Sprintf("%d", int64(math.Round(v)))
}

// YesNo renders a hazard flag.
func YesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// Percent renders a generation-mix share with one decimal, e.g. "35.2%".
func Percent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

// Magnitude renders a magnitude without trailing zeros.
func Magnitude(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}

// Intensity renders a gCO2/kWh reading.
func Intensity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " gCO2/kWh"
}
