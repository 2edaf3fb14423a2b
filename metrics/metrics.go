// Package metrics exposes catalog build measurements as prometheus metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/semdocs/catalog"
)

const namespace = "semdocs"

// Build results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector records catalog builds. The gauges describe the most recent
// successful build.
type Collector struct {
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram

	components  prometheus.Gauge
	versions    prometheus.Gauge
	unpublished prometheus.Gauge
	rejected    prometheus.Gauge
	warnings    *prometheus.GaugeVec
	resources   *prometheus.GaugeVec
}

// New creates a collector and registers its metrics with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_builds_total",
			Help:      "Catalog builds by result.",
		}, []string{"result"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_build_duration_seconds",
			Help:      "Time spent aggregating and classifying content.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		components: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_components",
			Help:      "Components in the catalog.",
		}),
		versions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_component_versions",
			Help:      "Component versions in the catalog.",
		}),
		unpublished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_unpublished_resources",
			Help:      "Resources without an output location.",
		}),
		rejected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_rejected_files",
			Help:      "Files dropped because they are outside the project structure.",
		}),
		warnings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_warnings",
			Help:      "Warnings recorded while building the catalog, by kind.",
		}, []string{"kind"}),
		resources: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_resources",
			Help:      "Resources in the catalog, by family.",
		}, []string{"family"}),
	}

	for _, collector := range []prometheus.Collector{
		c.builds, c.buildDuration, c.components, c.versions,
		c.unpublished, c.rejected, c.warnings, c.resources,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	// Expose zero values before the first build.
	for _, result := range []string{ResultSuccess, ResultFailure} {
		c.builds.WithLabelValues(result)
	}
	for _, family := range catalog.Families {
		c.resources.WithLabelValues(string(family))
	}
	return c, nil
}

// Observe records a successful build of cat that took duration.
func (c *Collector) Observe(cat *catalog.Catalog, duration time.Duration) {
	c.builds.WithLabelValues(ResultSuccess).Inc()
	c.buildDuration.Observe(duration.Seconds())

	stats := cat.Stats()
	c.components.Set(float64(stats.Components))
	c.versions.Set(float64(stats.Versions))
	c.unpublished.Set(float64(stats.Unpublished))
	c.rejected.Set(float64(stats.Rejected))
	for _, family := range catalog.Families {
		c.resources.WithLabelValues(string(family)).Set(float64(stats.Families[family]))
	}

	// Kinds seen only in an earlier build are removed.
	c.warnings.Reset()
	for _, w := range cat.Warnings() {
		c.warnings.WithLabelValues(w.Kind).Inc()
	}
}

// ObserveFailure records a build that failed after duration. The catalog
// gauges keep describing the last successful build.
func (c *Collector) ObserveFailure(duration time.Duration) {
	c.builds.WithLabelValues(ResultFailure).Inc()
	c.buildDuration.Observe(duration.Seconds())
}

// WriteToTextfile writes the gathered metrics to path in the text exposition
// format, for node exporter's textfile collector.
func WriteToTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
