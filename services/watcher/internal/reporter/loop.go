package reporter

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/models"
)

// Getter is the acquisition step called once per cycle.
type Getter interface {
	Get(ctx context.Context) (models.ContainerRecord, bool)
}

// Archiver stores freshly captured records.
type Archiver interface {
	Archive(ctx context.Context, rec models.ContainerRecord) error
}

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the
// latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Loop drives the poll cycle: fetch, record state, render, sleep.
type Loop struct {
	fetcher   Getter
	reporter  *Reporter
	interval  time.Duration
	state     *State
	archiver  Archiver
	sleep     SleepFunc
	now       func() time.Time
	logger    zerolog.Logger
	maxCycles int

	lastArchived time.Time
}

// LoopOption customizes a Loop.
type LoopOption func(*Loop)

// WithState publishes every cycle outcome to s.
func WithState(s *State) LoopOption {
	return func(l *Loop) { l.state = s }
}

// WithArchiver hands every newly captured record to a.
func WithArchiver(a Archiver) LoopOption {
	return func(l *Loop) { l.archiver = a }
}

// WithSleep replaces the inter-cycle wait.
func WithSleep(sleep SleepFunc) LoopOption {
	return func(l *Loop) { l.sleep = sleep }
}

// WithLoopClock replaces time.Now for state timestamps.
func WithLoopClock(now func() time.Time) LoopOption {
	return func(l *Loop) { l.now = now }
}

// WithLoopLogger sets the loop logger.
func WithLoopLogger(logger zerolog.Logger) LoopOption {
	return func(l *Loop) { l.logger = logger }
}

// WithMaxCycles stops Run after n cycles. Zero means run until cancelled.
func WithMaxCycles(n int) LoopOption {
	return func(l *Loop) { l.maxCycles = n }
}

// NewLoop builds a loop polling fetcher every interval.
func NewLoop(fetcher Getter, reporter *Reporter, interval time.Duration, opts ...LoopOption) *Loop {
	l := &Loop{
		fetcher:  fetcher,
		reporter: reporter,
		interval: interval,
		state:    &State{},
		sleep:    sleepContext,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State exposes the state the loop publishes to.
func (l *Loop) State() *State {
	return l.state
}

// Run polls until ctx is cancelled, then prints the goodbye line and returns
// nil. With a cycle limit it returns after the last cycle without sleeping.
func (l *Loop) Run(ctx context.Context) error {
	for cycle := 1; ctx.Err() == nil; cycle++ {
		l.RunOnce(ctx)
		if l.maxCycles > 0 && cycle >= l.maxCycles {
			return nil
		}
		if err := l.sleep(ctx, l.interval); err != nil {
			break
		}
	}

	l.logger.Info().Msg("poll loop interrupted")
	l.reporter.Goodbye()
	return nil
}

// RunOnce performs a single cycle. A cycle cut short by cancellation is not
// rendered.
func (l *Loop) RunOnce(ctx context.Context) {
	logger := l.logger.With().Str("cycle_id", uuid.NewString()).Logger()
	logger.Info().Msg("updating containerdata started")

	rec, ok := l.fetcher.Get(ctx)
	if ctx.Err() != nil {
		return
	}
	l.state.Set(rec, ok, l.now())

	if ok && l.archiver != nil && rec.CheckedAt.After(l.lastArchived) {
		if err := l.archiver.Archive(ctx, rec); err != nil {
			logger.Error().Err(err).Msg("archive reading failed")
		} else {
			l.lastArchived = rec.CheckedAt
		}
	}

	logger.Info().Msg("updating containerdata finished")
	l.reporter.Render(rec, ok)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
