// Package metrics exposes counters of remote result downloads.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "groupselector"

// Fetches records downloads of GNPS result files.
type Fetches struct {
	registry *prometheus.Registry
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates the collectors on a dedicated registry, with Go runtime and
// process collectors.
func New() *Fetches {
	reg := prometheus.NewRegistry()
	f := &Fetches{
		registry: reg,
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_fetch_total",
				Help:      "Downloads of GNPS result files, by result kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_fetch_duration_seconds",
				Help:      "Time spent downloading and parsing GNPS result files.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(
		f.total,
		f.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return f
}

func (f *Fetches) ObserveFetch(kind string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	f.total.WithLabelValues(kind, outcome).Inc()
	f.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (f *Fetches) Handler() http.Handler {
	return promhttp.HandlerFor(f.registry, promhttp.HandlerOpts{Registry: f.registry})
}

// Registry is the registry holding the collectors.
func (f *Fetches) Registry() *prometheus.Registry {
	return f.registry
}
