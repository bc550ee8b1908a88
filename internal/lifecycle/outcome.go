// Package lifecycle wraps a source adapter in the Loading → Content | Empty |
// Error state machine that every consumer of a source renders identically.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/observability"
)

// State is the display state of one source for one date.
type State int

const (
	StateLoading State = iota
	StateContent
	StateEmpty
	StateError
)

var stateNames = [...]string{"loading", "content", "empty", "error"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Settled reports whether s is a terminal state.
func (s State) Settled() bool { return s != StateLoading }

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if string(b) == name {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Outcome is the observable result of fetching one source for one date.
type Outcome[T any] struct {
	Source     domain.SourceID `json:"source"`
	Date       string          `json:"date"`
	State      State           `json:"state"`
	Records    []T             `json:"records"`
	Message    string          `json:"message,omitempty"`
	Generation uint64          `json:"generation"`
	SettledAt  time.Time       `json:"settled_at,omitzero"`

	// ErrorKind and Error describe the failure behind a StateError outcome
	// for API clients. Message stays the fixed display text.
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`

	Err error `json:"-"`
}

// Fetcher is implemented by every source adapter.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, date string) ([]T, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc[T any] func(ctx context.Context, date string) ([]T, error)

// Fetch calls f(ctx, date).
func (f FetcherFunc[T]) Fetch(ctx context.Context, date string) ([]T, error) {
	return f(ctx, date)
}

// Observer receives settled and superseded outcomes for logging and metrics.
// A zero Observer discards everything.
type Observer struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

func (o Observer) settled(source domain.SourceID, date string, state State, err error) {
	if o.Metrics != nil {
		o.Metrics.Outcomes.WithLabelValues(string(source), state.String()).Inc()
	}
	if o.Logger == nil {
		return
	}
	if state == StateError {
		o.Logger.Error("source fetch failed",
			"source", string(source),
			"date", date,
			"kind", domain.KindOf(err).String(),
			"error", err,
		)
		return
	}
	o.Logger.Debug("source fetch settled", "source", string(source), "date", date, "state", state.String())
}

func (o Observer) superseded(source domain.SourceID, date string, generation uint64) {
	if o.Metrics != nil {
		o.Metrics.OutcomesSuperseded.WithLabelValues(string(source)).Inc()
	}
	if o.Logger != nil {
		o.Logger.Debug("discarding superseded outcome", "source", string(source), "date", date, "generation", generation)
	}
}

// Resolve fetches date from f once and settles the result. It is for
// request-scoped callers with no persistent view to supersede.
func Resolve[T any](ctx context.Context, obs Observer, f Fetcher[T], source domain.Source, date string) Outcome[T] {
	out := settle(ctx, f, source, date)
	obs.settled(source.ID, date, out.State, out.Err)
	return out
}

// settle runs the fetch and classifies its result without side effects.
func settle[T any](ctx context.Context, f Fetcher[T], source domain.Source, date string) Outcome[T] {
	records, err := f.Fetch(ctx, date)
	out := Outcome[T]{
		Source:    source.ID,
		Date:      date,
		SettledAt: domain.Clock().Now().UTC(),
	}
	switch {
	case err != nil:
		out.State = StateError
		out.Records = []T{}
		out.Message = source.FailureMessage
		out.ErrorKind = domain.KindOf(err).String()
		out.Error = err.Error()
		out.Err = err
	case len(records) == 0:
		out.State = StateEmpty
		out.Records = []T{}
		out.Message = source.EmptyMessage
	default:
		out.State = StateContent
		out.Records = records
	}
	return out
}
