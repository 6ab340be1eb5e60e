// Package metrics exports check outcomes as Prometheus metrics.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/drosengarten/bulwark/decorators"
)

// Collector counts check outcomes and times check runs.
type Collector struct {
	checks   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a Collector and registers it with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulwark_checks_total",
				Help: "Checks evaluated by wrapped functions, by outcome",
			},
			[]string{"check", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bulwark_check_duration_seconds",
				Help:    "Time spent running checks",
				Buckets: prometheus.ExponentialBuckets(0.00001, 10, 7),
			},
			[]string{"check"},
		),
	}
	for _, m := range []prometheus.Collector{c.checks, c.duration} {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

// Observe records one event. It satisfies decorators.Observer.
func (c *Collector) Observe(e decorators.Event) {
	c.checks.WithLabelValues(e.Check, string(e.Outcome)).Inc()
	// Skipped and disabled checks never ran.
	if e.Outcome == decorators.OutcomePassed || e.Outcome == decorators.OutcomeFailed {
		c.duration.WithLabelValues(e.Check).Observe(e.Duration.Seconds())
	}
}

// WriteFile writes everything g gathers to path in the text exposition
// format, for pickup by the node exporter textfile collector.
func WriteFile(path string, g prometheus.Gatherer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}
