package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/semdocs/aggregate"
	"github.com/c360studio/semdocs/catalog"
	"github.com/c360studio/semdocs/config"
	"github.com/c360studio/semdocs/metrics"
)

var errNoSources = errors.New("playbook has no content sources")

// builder aggregates the playbook's sources and classifies them into a
// catalog, recording each build in its metrics registry.
type builder struct {
	cfg        *config.Config
	logger     *slog.Logger
	aggregator *aggregate.Aggregator
	registry   *prometheus.Registry
	metrics    *metrics.Collector
}

// loadPlaybook loads the layered configuration for the given playbook path.
func loadPlaybook(playbook string, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.NewLoader(logger).Load(playbook)
	if err != nil {
		return nil, fmt.Errorf("load playbook: %w", err)
	}
	if len(cfg.Content.Sources) == 0 {
		return nil, errNoSources
	}
	return cfg, nil
}

func newBuilder(cfg *config.Config, logger *slog.Logger) (*builder, error) {
	registry := prometheus.NewRegistry()
	collector, err := metrics.New(registry)
	if err != nil {
		return nil, err
	}
	return &builder{
		cfg:        cfg,
		logger:     logger,
		aggregator: aggregate.New(aggregate.WithLogger(logger)),
		registry:   registry,
		metrics:    collector,
	}, nil
}

// build runs one aggregate and classify pass.
func (b *builder) build(ctx context.Context) (*catalog.Catalog, error) {
	start := time.Now()
	groups, err := b.aggregator.Aggregate(ctx, b.cfg.Content.Sources)
	if err != nil {
		b.metrics.ObserveFailure(time.Since(start))
		return nil, fmt.Errorf("aggregate content: %w", err)
	}
	c, err := catalog.Classify(b.cfg, groups, b.cfg.AsciiDoc, catalog.WithLogger(b.logger))
	if err != nil {
		b.metrics.ObserveFailure(time.Since(start))
		return nil, fmt.Errorf("classify content: %w", err)
	}
	b.metrics.Observe(c, time.Since(start))
	return c, nil
}

// writeMetrics writes the metrics registry to path when one is given.
func (b *builder) writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	return metrics.WriteToTextfile(path, b.registry)
}

// sourceRoots returns the distinct absolute worktree directories of the
// playbook's sources.
func (b *builder) sourceRoots() ([]string, error) {
	seen := make(map[string]bool)
	var roots []string
	for _, src := range b.cfg.Content.Sources {
		if config.IsRemote(src.URL) {
			return nil, fmt.Errorf("%w: %s", aggregate.ErrRemoteSource, src.URL)
		}
		root, err := filepath.Abs(src.URL)
		if err != nil {
			return nil, err
		}
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	return roots, nil
}
