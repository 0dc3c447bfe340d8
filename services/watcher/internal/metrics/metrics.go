package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "spaarnelanden_"

// Fetch results recorded on the fetch counter.
const (
	ResultCached          = "cached"
	ResultFresh           = "fresh"
	ResultTransportError  = "transport_error"
	ResultExtractionError = "extraction_error"
	ResultMappingError    = "mapping_error"
	ResultNotFound        = "not_found"
)

// Metrics groups the watcher collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	fetches       *prometheus.CounterVec
	fillingDegree prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "fetch_total",
			Help: "Container fetch attempts by result",
		}, []string{"result"}),
		fillingDegree: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "container_filling_degree",
			Help: "Last fetched filling degree of the watched container (percent)",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "last_success_timestamp_seconds",
			Help: "Unix time of the last successful upstream fetch",
		}),
	}
	reg.MustRegister(m.fetches, m.fillingDegree, m.lastSuccess)
	return m
}

// ObserveFetch counts one fetch outcome.
func (m *Metrics) ObserveFetch(result string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(result).Inc()
}

// ObserveRecord updates the gauges after a fresh record was captured.
func (m *Metrics) ObserveRecord(fillingDegree float64, at time.Time) {
	if m == nil {
		return
	}
	m.fillingDegree.Set(fillingDegree)
	m.lastSuccess.Set(float64(at.Unix()))
}
