package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registerOnce           sync.Once
	upstreamRequests       *prometheus.CounterVec
	upstreamDuration       *prometheus.HistogramVec
	fallbackServed         *prometheus.CounterVec
	mirrorSyncedRows       *prometheus.CounterVec
	residentDeletes        *prometheus.CounterVec
	defaultDurationBuckets = prometheus.DefBuckets
)

const (
	namespaceMetrics = "pssuai_admin"
)

// MustRegister registers the proxy metrics and the Go runtime collectors. Safe to call repeatedly.
func MustRegister() {
	registerOnce.Do(func() {
		upstreamRequests = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "upstream",
					Name:      "requests_total",
					Help:      "Upstream calls by resource and outcome.",
				},
				[]string{"resource", "outcome"},
			),
		)
		upstreamDuration = registerHistogramVec(
			prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespaceMetrics,
					Subsystem: "upstream",
					Name:      "duration_seconds",
					Help:      "Upstream call latency by resource.",
					Buckets:   defaultDurationBuckets,
				},
				[]string{"resource"},
			),
		)
		fallbackServed = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "mirror",
					Name:      "fallback_total",
					Help:      "Responses answered from the local mirror, by table and result.",
				},
				[]string{"table", "result"},
			),
		)
		mirrorSyncedRows = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "mirror",
					Name:      "synced_rows_total",
					Help:      "Rows upserted into the local mirror, by table.",
				},
				[]string{"table"},
			),
		)
		residentDeletes = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "residents",
					Name:      "deletes_total",
					Help:      "Resident delete commands by remote result.",
				},
				[]string{"remote"},
			),
		)

		registerRuntimeCollectors()
	})
}

// ObserveUpstream records one upstream call.
func ObserveUpstream(resource, outcome string, duration time.Duration) {
	if upstreamRequests == nil || upstreamDuration == nil {
		return
	}
	resourceLabel := normalizeLabel(resource, "unknown")
	upstreamRequests.WithLabelValues(resourceLabel, normalizeLabel(outcome, "unknown")).Inc()
	upstreamDuration.WithLabelValues(resourceLabel).Observe(duration.Seconds())
}

// RecordFallback counts a response served from the mirror; result is "ok" or "error".
func RecordFallback(table, result string) {
	if fallbackServed == nil {
		return
	}
	fallbackServed.WithLabelValues(normalizeLabel(table, "unknown"), normalizeLabel(result, "unknown")).Inc()
}

// AddSyncedRows counts rows written by a mirror sync.
func AddSyncedRows(table string, n int) {
	if mirrorSyncedRows == nil || n <= 0 {
		return
	}
	mirrorSyncedRows.WithLabelValues(normalizeLabel(table, "unknown")).Add(float64(n))
}

// RecordResidentDelete counts a resident delete by remote outcome.
func RecordResidentDelete(remoteOK bool) {
	if residentDeletes == nil {
		return
	}
	label := "failed"
	if remoteOK {
		label = "ok"
	}
	residentDeletes.WithLabelValues(label).Inc()
}

func normalizeLabel(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func registerCounterVec(vec *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(vec); err != nil {
		if existing := alreadyRegisteredCounterVec(err); existing != nil {
			return existing
		}
		panic(err)
	}
	return vec
}

func registerHistogramVec(vec *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := prometheus.Register(vec); err != nil {
		if existing := alreadyRegisteredHistogramVec(err); existing != nil {
			return existing
		}
		panic(err)
	}
	return vec
}

func registerRuntimeCollectors() {
	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		if !isAlreadyRegistered(err) {
			panic(err)
		}
	}
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		if !isAlreadyRegistered(err) {
			panic(err)
		}
	}
}

func alreadyRegisteredCounterVec(err error) *prometheus.CounterVec {
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing
		}
	}
	return nil
}

func alreadyRegisteredHistogramVec(err error) *prometheus.HistogramVec {
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
			return existing
		}
	}
	return nil
}

func isAlreadyRegistered(err error) bool {
	_, ok := err.(prometheus.AlreadyRegisteredError)
	return ok
}
