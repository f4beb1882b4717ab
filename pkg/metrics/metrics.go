// Package metrics records per-run Prometheus metrics and writes them in the
// text exposition format for a node exporter textfile collector.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shortlist"

// Run holds the metrics of one ranking run on its own registry.
type Run struct {
	reg *prometheus.Registry

	RowsRead        *prometheus.CounterVec
	CompaniesScored *prometheus.GaugeVec
	CompaniesRanked *prometheus.GaugeVec
	Duration        prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// NewRun creates and registers the run metrics.
func NewRun() *Run {
	r := &Run{
		reg: prometheus.NewRegistry(),
		RowsRead: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_rows_total",
				Help:      "Rows read from a source file",
			},
			[]string{"source"}, // "funding" / "signal"
		),
		CompaniesScored: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "companies_scored",
				Help:      "Companies scored per score map",
			},
			[]string{"map"},
		),
		CompaniesRanked: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "companies_ranked",
				Help:      "Companies in the top quartile per score map",
			},
			[]string{"map"},
		),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the ranking run",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}

	r.reg.MustRegister(r.RowsRead, r.CompaniesScored, r.CompaniesRanked, r.Duration, r.LastSuccess)
	return r
}

// ObserveRows adds n rows read from source.
func (r *Run) ObserveRows(source string, n int) {
	r.RowsRead.WithLabelValues(source).Add(float64(n))
}

// ObserveMap records the scored and ranked sizes of a score map.
func (r *Run) ObserveMap(name string, scored, ranked int) {
	r.CompaniesScored.WithLabelValues(name).Set(float64(scored))
	r.CompaniesRanked.WithLabelValues(name).Set(float64(ranked))
}

// Done records a successful run that took d.
func (r *Run) Done(d time.Duration, now time.Time) {
	r.Duration.Set(d.Seconds())
	r.LastSuccess.Set(float64(now.Unix()))
}

// WriteFile writes the metrics to path atomically.
func (r *Run) WriteFile(path string) error {
	if path == "" {
		return errors.New("metrics path required")
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("error writing metrics to %s: %w", path, err)
	}
	return nil
}
