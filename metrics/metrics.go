package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sweep holds the engine's cycle-level collectors. Construct once per
// process with the registry served on /metrics; tests pass their own
// registry so repeated construction never collides.
type Sweep struct {
	cycles    prometheus.Counter
	errors    prometheus.Counter
	swept     prometheus.Counter
	transfers *prometheus.CounterVec
	lastCycle prometheus.Gauge
	duration  prometheus.Histogram
}

func NewSweep(reg prometheus.Registerer) *Sweep {
	f := promauto.With(reg)
	return &Sweep{
		cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sweep",
			Name:      "cycles_total",
			Help:      "Completed sweep cycles.",
		}),
		errors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sweep",
			Name:      "errors_total",
			Help:      "Per-address errors accumulated across cycles.",
		}),
		swept: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sweep",
			Name:      "swept_total",
			Help:      "Running total of amounts swept to the master wallet.",
		}),
		transfers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sweep",
			Name:      "transfers_total",
			Help:      "Accepted transfers by token kind.",
		}, []string{"kind"}),
		lastCycle: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "sweep",
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time the last cycle finished.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sweep",
			Name:      "cycle_duration_seconds",
			Help:      "Wall-clock duration of sweep cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

// ObserveCycle records one finished cycle.
func (m *Sweep) ObserveCycle(swept float64, tokenTransfers, nativeTransfers, errs int, took time.Duration) {
	m.cycles.Inc()
	m.errors.Add(float64(errs))
	m.swept.Add(swept)
	m.transfers.WithLabelValues("token").Add(float64(tokenTransfers))
	m.transfers.WithLabelValues("native").Add(float64(nativeTransfers))
	m.lastCycle.SetToCurrentTime()
	m.duration.Observe(took.Seconds())
}
