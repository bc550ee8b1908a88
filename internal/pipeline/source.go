package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/what-happened-on/internal/domain"
)

// MaxRangeDays bounds a single backfill so one invocation cannot hammer the
// upstream APIs for years of dates.
const MaxRangeDays = 366

// DateRange yields the calendar dates from a start date to an end date,
// inclusive, in ascending order.
type DateRange struct {
	next domain.DateKey
	last domain.DateKey
	done bool
}

// NewDateRange validates from and to and returns a DateRange over them.
func NewDateRange(from, to string) (*DateRange, error) {
	start, err := domain.ParseDateKey(from)
	if err != nil {
		return nil, fmt.Errorf("from %q: %w", from, err)
	}
	end, err := domain.ParseDateKey(to)
	if err != nil {
		return nil, fmt.Errorf("to %q: %w", to, err)
	}
	if end.Time().Before(start.Time()) {
		return nil, errors.New("range end is before range start")
	}
	if days := int(end.Time().Sub(start.Time())/(24*time.Hour)) + 1; days > MaxRangeDays {
		return nil, fmt.Errorf("range spans %d days, limit is %d", days, MaxRangeDays)
	}
	return &DateRange{next: start, last: end}, nil
}

// ExtractBatch returns up to batchSize dates. It returns io.EOF once the
// range is exhausted.
func (r *DateRange) ExtractBatch(ctx context.Context, batchSize int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.done {
		return nil, io.EOF
	}
	if batchSize < 1 {
		batchSize = 1
	}
	dates := make([]string, 0, batchSize)
	for len(dates) < batchSize && !r.done {
		dates = append(dates, r.next.String())
		if !r.next.Time().Before(r.last.Time()) {
			r.done = true
			break
		}
		r.next = domain.DateKeyOf(r.next.Time().AddDate(0, 0, 1))
	}
	return dates, nil
}
