// Package cache holds the single-slot acquisition cache in front of the
// Spaarnelanden page.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/metrics"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/models"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/spaarnelanden"
)

// ErrNotFound is returned when the decoded page holds no entry for the target
// container.
var ErrNotFound = errors.New("container not found")

// Source yields the raw container entries of one upstream page load.
type Source interface {
	FetchContainers(ctx context.Context) ([]models.RawContainer, error)
}

// Fetcher serves the watched container's record, going to the Source only
// when the cached record is older than the freshness window. It is not safe
// for concurrent use.
type Fetcher struct {
	source    Source
	target    string
	freshness time.Duration
	now       func() time.Time
	logger    zerolog.Logger
	metrics   *metrics.Metrics

	cached      *models.ContainerRecord
	lastSuccess time.Time
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithLogger sets the logger used for fetch outcomes.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// WithMetrics records fetch outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// New returns an empty Fetcher for the container registered as target.
func New(source Source, target string, freshness time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:    source,
		target:    target,
		freshness: freshness,
		now:       time.Now,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get returns the watched container's record, or false when none could be
// produced this call. Failures are logged and never returned; they leave the
// cached record and its timestamp untouched. A not-found result is reported as
// absent even while an older record is still cached.
func (f *Fetcher) Get(ctx context.Context) (models.ContainerRecord, bool) {
	if f.cached != nil && f.now().Sub(f.lastSuccess) < f.freshness {
		f.logger.Info().Time("checked_at", f.cached.CheckedAt).Msg("using cached data")
		f.metrics.ObserveFetch(metrics.ResultCached)
		return *f.cached, true
	}

	f.logger.Info().Str("container", f.target).Msg("fetching new data")
	rec, err := f.refresh(ctx)
	if err != nil {
		f.reportFailure(ctx, err)
		return models.ContainerRecord{}, false
	}

	f.metrics.ObserveFetch(metrics.ResultFresh)
	f.metrics.ObserveRecord(rec.FillingDegree, rec.CheckedAt)
	return rec, true
}

func (f *Fetcher) refresh(ctx context.Context) (models.ContainerRecord, error) {
	containers, err := f.source.FetchContainers(ctx)
	if err != nil {
		return models.ContainerRecord{}, err
	}

	for i, raw := range containers {
		match, err := spaarnelanden.MatchesRegistration(raw, f.target)
		if err != nil {
			return models.ContainerRecord{}, fmt.Errorf("%w: entry %d: %w", spaarnelanden.ErrMapping, i, err)
		}
		if !match {
			continue
		}

		// A refetch only happens once now is past lastSuccess, so CheckedAt
		// never goes backwards.
		now := f.now()
		rec, err := spaarnelanden.ToRecord(raw, now)
		if err != nil {
			return models.ContainerRecord{}, err
		}

		f.cached = &rec
		f.lastSuccess = now
		return rec, nil
	}

	return models.ContainerRecord{}, fmt.Errorf("%w: %q among %d entries", ErrNotFound, f.target, len(containers))
}

func (f *Fetcher) reportFailure(ctx context.Context, err error) {
	switch {
	case ctx.Err() != nil:
		f.logger.Debug().Err(err).Msg("fetch interrupted")
	case errors.Is(err, ErrNotFound):
		f.metrics.ObserveFetch(metrics.ResultNotFound)
		f.logger.Warn().Str("container", f.target).Msgf("container %s not found", f.target)
	case errors.Is(err, spaarnelanden.ErrTransport):
		f.metrics.ObserveFetch(metrics.ResultTransportError)
		f.logger.Error().Err(err).Msg("error fetching data")
	case errors.Is(err, spaarnelanden.ErrExtraction):
		f.metrics.ObserveFetch(metrics.ResultExtractionError)
		f.logger.Error().Err(err).Msg("error processing data")
	default:
		f.metrics.ObserveFetch(metrics.ResultMappingError)
		f.logger.Error().Err(err).Msg("error processing data")
	}
}
