package pool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors a Pool updates.
type Metrics struct {
	Inserted prometheus.Counter
	Produced prometheus.Counter
	Evicted  prometheus.Counter
	Swept    prometheus.Counter
	Retired  prometheus.Counter
	Size     prometheus.Gauge
	Errors   *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the pool collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Inserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "genlist",
			Subsystem: "pool",
			Name:      "inserted_total",
			Help:      "Producers inserted into the list",
		}),
		Produced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "genlist",
			Subsystem: "pool",
			Name:      "produced_total",
			Help:      "Values produced by the list head",
		}),
		Evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "genlist",
			Subsystem: "pool",
			Name:      "evicted_total",
			Help:      "Exhausted producers evicted from the head",
		}),
		Swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "genlist",
			Subsystem: "pool",
			Name:      "swept_total",
			Help:      "Producers removed by sweeps",
		}),
		Retired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "genlist",
			Subsystem: "pool",
			Name:      "retired_total",
			Help:      "Producers flagged as retired",
		}),
		Size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "genlist",
			Subsystem: "pool",
			Name:      "producers",
			Help:      "Producers currently linked in the list",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genlist",
			Subsystem: "pool",
			Name:      "errors_total",
			Help:      "Failed pool operations",
		}, []string{"op"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "genlist",
			Subsystem: "pool",
			Name:      "op_duration_seconds",
			Help:      "Time spent executing pool operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}

	if reg != nil {
		reg.MustRegister(m.Inserted, m.Produced, m.Evicted, m.Swept, m.Retired, m.Size, m.Errors, m.Duration)
	}
	return m
}

func (m *Metrics) observe(op string, d time.Duration, err error) {
	m.Duration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.Errors.WithLabelValues(op).Inc()
	}
}
