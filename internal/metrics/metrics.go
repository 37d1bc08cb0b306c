// Package metrics records per-run scrape metrics and pushes them to a
// Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ahmethakanbesel/history-scraper/internal/run"
)

const namespace = "history_scraper"

// Recorder implements run.Observer on top of a private registry.
type Recorder struct {
	registry *prometheus.Registry
	symbols  *prometheus.CounterVec
	rows     *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		symbols: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbols_total",
			Help:      "Symbols processed, by outcome.",
		}, []string{"outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "History rows written to CSV.",
		}, []string{"symbol"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "History rows matched but rejected by the row parser.",
		}, []string{"symbol"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "symbol_duration_seconds",
			Help:      "Time spent fetching, parsing and writing one symbol.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	r.registry.MustRegister(r.symbols, r.rows, r.dropped, r.duration)
	return r
}

// Observe records one finished symbol.
func (r *Recorder) Observe(res run.Result) {
	outcome := "success"
	if res.Err != nil {
		outcome = "failure"
	}
	r.symbols.WithLabelValues(outcome).Inc()
	r.rows.WithLabelValues(res.Symbol).Add(float64(res.Rows))
	r.dropped.WithLabelValues(res.Symbol).Add(float64(res.Dropped))
	r.duration.Observe(res.Duration.Seconds())
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// Push replaces the metrics of job on the Pushgateway at url.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
