package engine

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSucceeded   = "succeeded"
	outcomeFailed      = "failed"
	outcomeUnknownRoot = "unknown_root"
	outcomeEmpty       = "empty"
)

// Metrics counts dispatches by outcome and times them.
type Metrics struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the dispatch collectors with reg. Centers sharing
// a registry share the collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	dispatches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strinput_dispatches_total",
			Help: "Total number of dispatched command lines",
		},
		[]string{"outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strinput_dispatch_duration_seconds",
			Help:    "Dispatch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	var err error
	if dispatches, err = register(reg, dispatches); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Metrics{dispatches: dispatches, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) record(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
