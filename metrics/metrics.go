// Package metrics exports fetch and strategy measurements in the
// Prometheus text format.
package metrics

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"gitlab.com/slon/wgetter/fetch"
	"gitlab.com/slon/wgetter/harness"
)

const namespace = "wgetter"

type Collector struct {
	clock    clockwork.Clock
	registry *prometheus.Registry

	fetches *prometheus.CounterVec
	bytes   *prometheus.CounterVec
	latency *prometheus.HistogramVec
	elapsed *prometheus.GaugeVec
	result  *prometheus.GaugeVec
}

// New creates a Collector that times fetches on clock.
func New(clock clockwork.Clock) *Collector {
	c := &Collector{
		clock:    clock,
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Fetches performed, by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetched_bytes_total",
			Help:      "Response body bytes fetched, by strategy.",
		}, []string{"strategy"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of a single fetch, by strategy.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"strategy"}),
		elapsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "strategy_elapsed_seconds",
			Help:      "Wall-clock time of the last run of a strategy.",
		}, []string{"strategy"}),
		result: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "strategy_result",
			Help:      "Aggregate body length of the last run of a strategy.",
		}, []string{"strategy"}),
	}

	c.registry.MustRegister(c.fetches, c.bytes, c.latency, c.elapsed, c.result)
	return c
}

// Instrument wraps f so that every fetch is counted under strategy.
func (c *Collector) Instrument(f fetch.Fetcher, strategy string) fetch.Fetcher {
	return fetch.Func(func(ctx context.Context, url string) (int, error) {
		start := c.clock.Now()
		n, err := f.Fetch(ctx, url)
		c.latency.WithLabelValues(strategy).Observe(c.clock.Since(start).Seconds())

		if err != nil {
			c.fetches.WithLabelValues(strategy, "error").Inc()
			return n, err
		}

		c.fetches.WithLabelValues(strategy, "ok").Inc()
		c.bytes.WithLabelValues(strategy).Add(float64(n))
		return n, nil
	})
}

// Observe records a finished strategy run. Failed runs only update elapsed time.
func (c *Collector) Observe(m harness.Measurement) {
	c.elapsed.WithLabelValues(m.Name).Set(m.Elapsed.Seconds())
	if m.Err == nil {
		c.result.WithLabelValues(m.Name).Set(float64(m.Result))
	}
}

func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// WriteTextfile dumps all metrics to path, replacing the file atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
