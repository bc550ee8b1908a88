package lifecycle

import (
	"context"
	"errors"
	"sync"

	"github.com/couchcryptid/what-happened-on/internal/domain"
)

var (
	// ErrNotSelected is returned by Wait before any date has been selected.
	ErrNotSelected = errors.New("no date selected")
	// ErrClosed is returned by Wait after Close.
	ErrClosed = errors.New("controller closed")
)

// Controller tracks the outcome for the most recently selected date of one
// source. Selecting a new date supersedes any fetch still in flight: its
// context is cancelled and, should it settle anyway, its result is dropped.
type Controller[T any] struct {
	source  domain.Source
	fetcher Fetcher[T]
	obs     Observer

	mu         sync.Mutex
	generation uint64
	current    Outcome[T]
	cancel     context.CancelFunc
	settledCh  chan struct{} // closed once current settles or is superseded
	closed     bool
}

// NewController creates a Controller with nothing selected.
func NewController[T any](source domain.Source, f Fetcher[T], obs Observer) *Controller[T] {
	return &Controller[T]{
		source:  source,
		fetcher: f,
		obs:     obs,
		current: Outcome[T]{Source: source.ID, State: StateLoading},
	}
}

// Select starts fetching date and returns its generation. The outcome moves
// to Loading immediately.
func (c *Controller[T]) Select(ctx context.Context, date string) uint64 {
	fetchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	if c.settledCh != nil && !c.current.State.Settled() {
		close(c.settledCh)
	}
	c.generation++
	gen := c.generation
	c.closed = false
	c.cancel = cancel
	c.settledCh = done
	c.current = Outcome[T]{
		Source:     c.source.ID,
		Date:       date,
		State:      StateLoading,
		Records:    []T{},
		Generation: gen,
	}
	c.mu.Unlock()

	go func() {
		out := settle(fetchCtx, c.fetcher, c.source, date)
		out.Generation = gen
		c.accept(out, done)
	}()
	return gen
}

func (c *Controller[T]) accept(out Outcome[T], done chan struct{}) {
	c.mu.Lock()
	if out.Generation != c.generation {
		c.mu.Unlock()
		c.obs.superseded(c.source.ID, out.Date, out.Generation)
		return
	}
	c.current = out
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	close(done)
	c.mu.Unlock()

	c.obs.settled(c.source.ID, out.Date, out.State, out.Err)
}

// Current returns a snapshot of the current outcome.
func (c *Controller[T]) Current() Outcome[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Wait blocks until the current generation settles. If a newer date is
// selected while waiting, Wait follows it.
func (c *Controller[T]) Wait(ctx context.Context) (Outcome[T], error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return Outcome[T]{}, ErrClosed
		}
		if c.generation == 0 {
			c.mu.Unlock()
			return Outcome[T]{}, ErrNotSelected
		}
		if c.current.State.Settled() {
			out := c.current
			c.mu.Unlock()
			return out, nil
		}
		ch := c.settledCh
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return Outcome[T]{}, ctx.Err()
		}
	}
}

// Load selects date and waits for its outcome.
func (c *Controller[T]) Load(ctx context.Context, date string) (Outcome[T], error) {
	c.Select(ctx, date)
	return c.Wait(ctx)
}

// Close cancels any fetch in flight and discards its outcome. Waiters return
// ErrClosed. A later Select reopens the controller.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.settledCh != nil && !c.current.State.Settled() {
		close(c.settledCh)
	}
	c.settledCh = nil
	c.generation++
	c.closed = true
}
