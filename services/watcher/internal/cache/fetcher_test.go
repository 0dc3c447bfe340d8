package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/metrics"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/models"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/spaarnelanden"
)

const window = 5 * time.Minute

type fakeClock struct{ t time.Time }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *fakeClock) Set(t time.Time)         { c.t = t }

type response struct {
	containers []models.RawContainer
	err        error
}

// scriptedSource replays responses in order and repeats the last one.
type scriptedSource struct {
	responses []response
	calls     int
}

func (s *scriptedSource) FetchContainers(ctx context.Context) ([]models.RawContainer, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", spaarnelanden.ErrTransport, err)
	}
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	r := s.responses[idx]
	return r.containers, r.err
}

func entry(regNumber string, fillingDegree float64) models.RawContainer {
	return models.RawContainer{
		"iFillingDegreeStatus": float64(1),
		"dFillingDegree":       fillingDegree,
		"dLatitude":            52.38,
		"dLongitude":           4.63,
		"sRegistrationNumber":  regNumber,
		"bIsOutOfUse":          false,
		"bIsSkipped":           false,
		"bIsEmptiedToday":      false,
		"sDateLastEmptied":     "05-03-2024",
		"iContainerProductId":  float64(7),
		"sProductName":         "Papier",
		"sContainerKindName":   "Ondergronds",
	}
}

func ok(entries ...models.RawContainer) response { return response{containers: entries} }

func transportErr() response {
	return response{err: fmt.Errorf("%w: connection refused", spaarnelanden.ErrTransport)}
}

func newFetcher(src Source, clock *fakeClock, opts ...Option) *Fetcher {
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(src, "X1", window, opts...)
}

func TestGetMapsTargetEntry(t *testing.T) {
	clock := newClock()
	src := &scriptedSource{responses: []response{ok(entry("Y2", 10), entry("X1", 42.5))}}
	f := newFetcher(src, clock)

	rec, found := f.Get(context.Background())
	require.True(t, found)

	assert.Equal(t, "X1", rec.RegistrationNumber)
	assert.Equal(t, "Niet ingepland vandaag", rec.FillingDegreeStatus)
	assert.Equal(t, 42.5, rec.FillingDegree)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), rec.DateLastEmptied)
	assert.Equal(t, clock.Now(), rec.CheckedAt)
	assert.Equal(t, 1, src.calls)
}

func TestGetSkipsEntriesWithoutStringRegistration(t *testing.T) {
	unregistered := entry("Y2", 10)
	unregistered["sRegistrationNumber"] = nil
	numbered := entry("Z3", 20)
	numbered["sRegistrationNumber"] = float64(7)

	src := &scriptedSource{responses: []response{ok(unregistered, numbered, entry("X1", 42.5))}}
	f := newFetcher(src, newClock())

	rec, found := f.Get(context.Background())
	require.True(t, found)
	assert.Equal(t, "X1", rec.RegistrationNumber)
	assert.Equal(t, 42.5, rec.FillingDegree)
}

func TestFreshnessGating(t *testing.T) {
	clock := newClock()
	src := &scriptedSource{responses: []response{ok(entry("X1", 10)), ok(entry("X1", 20))}}
	f := newFetcher(src, clock)

	first, found := f.Get(context.Background())
	require.True(t, found)

	clock.Advance(window - time.Second)
	cached, found := f.Get(context.Background())
	require.True(t, found)
	assert.Equal(t, 1, src.calls, "within the window no network call is made")
	assert.Equal(t, first, cached)

	clock.Advance(2 * time.Second)
	fresh, found := f.Get(context.Background())
	require.True(t, found)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 20.0, fresh.FillingDegree)
	assert.True(t, fresh.CheckedAt.After(first.CheckedAt))
}

func TestWindowBoundaryRefetches(t *testing.T) {
	clock := newClock()
	src := &scriptedSource{responses: []response{ok(entry("X1", 10))}}
	f := newFetcher(src, clock)

	f.Get(context.Background())
	clock.Advance(window)
	f.Get(context.Background())

	assert.Equal(t, 2, src.calls)
}

func TestTransportFailurePreservesCache(t *testing.T) {
	clock := newClock()
	src := &scriptedSource{responses: []response{ok(entry("X1", 10)), transportErr()}}
	f := newFetcher(src, clock)

	original, found := f.Get(context.Background())
	require.True(t, found)

	clock.Advance(window + time.Second)
	_, found = f.Get(context.Background())
	assert.False(t, found)
	assert.Equal(t, 2, src.calls)

	// The failure did not reset the success timestamp: still stale, still refetching.
	clock.Advance(time.Second)
	_, found = f.Get(context.Background())
	assert.False(t, found)
	assert.Equal(t, 3, src.calls)

	// Once the window relative to the original success is satisfied, the old
	// record is served again.
	clock.Set(original.CheckedAt.Add(window - time.Second))
	rec, found := f.Get(context.Background())
	require.True(t, found)
	assert.Equal(t, original, rec)
	assert.Equal(t, 3, src.calls)
}

func TestNotFoundIsStrict(t *testing.T) {
	clock := newClock()
	src := &scriptedSource{responses: []response{ok(entry("X1", 10)), ok(entry("Y2", 50))}}
	logs := &bytes.Buffer{}
	f := newFetcher(src, clock, WithLogger(zerolog.New(logs)))

	original, found := f.Get(context.Background())
	require.True(t, found)

	clock.Advance(window + time.Second)
	_, found = f.Get(context.Background())
	assert.False(t, found, "stale cache is not surfaced when the container is missing")
	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), "container X1 not found")

	// Cache itself is not cleared.
	require.NotNil(t, f.cached)
	assert.Equal(t, original, *f.cached)
}

func TestFailuresYieldAbsent(t *testing.T) {
	malformedDate := entry("X1", 10)
	malformedDate["sDateLastEmptied"] = "2024/03/05"

	missingRegistration := entry("X1", 10)
	delete(missingRegistration, "sRegistrationNumber")

	tests := []struct {
		name      string
		resp      response
		wantLevel string
		wantMsg   string
	}{
		{"transport", transportErr(), "error", "error fetching data"},
		{"marker absence", response{err: fmt.Errorf("%w: marker not found", spaarnelanden.ErrExtraction)}, "error", "error processing data"},
		{"malformed date", ok(malformedDate), "error", "error processing data"},
		{"entry without registration number", ok(entry("Y2", 1), missingRegistration), "error", "error processing data"},
		{"empty list", ok(), "warn", "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := &bytes.Buffer{}
			f := newFetcher(&scriptedSource{responses: []response{tt.resp}}, newClock(), WithLogger(zerolog.New(logs)))

			rec, found := f.Get(context.Background())
			assert.False(t, found)
			assert.Equal(t, models.ContainerRecord{}, rec)
			assert.Nil(t, f.cached)

			last := lastLogLine(t, logs)
			assert.Equal(t, tt.wantLevel, last["level"])
			assert.Contains(t, last["message"], tt.wantMsg)
		})
	}
}

func TestUnknownStatusNeverFails(t *testing.T) {
	raw := entry("X1", 10)
	raw["iFillingDegreeStatus"] = float64(7)
	f := newFetcher(&scriptedSource{responses: []response{ok(raw)}}, newClock())

	rec, found := f.Get(context.Background())
	require.True(t, found)
	assert.Equal(t, "Unknown", rec.FillingDegreeStatus)
}

func TestCancelledContextIsQuiet(t *testing.T) {
	logs := &bytes.Buffer{}
	f := newFetcher(&scriptedSource{responses: []response{ok(entry("X1", 1))}}, newClock(),
		WithLogger(zerolog.New(logs).Level(zerolog.InfoLevel)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, found := f.Get(ctx)
	assert.False(t, found)
	assert.NotContains(t, logs.String(), `"level":"error"`)
}

func TestMetricsRecorded(t *testing.T) {
	clock := newClock()
	reg := prometheus.NewRegistry()
	src := &scriptedSource{responses: []response{ok(entry("X1", 10)), transportErr()}}
	f := newFetcher(src, clock, WithMetrics(metrics.New(reg)))

	f.Get(context.Background())
	f.Get(context.Background())
	clock.Advance(window)
	f.Get(context.Background())

	counts := fetchCounts(t, reg)
	assert.Equal(t, 1.0, counts[metrics.ResultFresh])
	assert.Equal(t, 1.0, counts[metrics.ResultCached])
	assert.Equal(t, 1.0, counts[metrics.ResultTransportError])
}

func fetchCounts(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	counts := make(map[string]float64)
	for _, family := range families {
		if family.GetName() != "spaarnelanden_fetch_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "result" {
					counts[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	return counts
}

func lastLogLine(t *testing.T, logs *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}
