package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/semdocs/aggregate"
	"github.com/c360studio/semdocs/catalog"
)

func watchCmd(global *globalFlags) *cobra.Command {
	var (
		debounce   string
		metricsOut string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the content catalog whenever source files change",
		Long: `Build the content catalog, then watch every content source worktree
and rebuild when files are created, modified or deleted. Changes are
debounced so a burst of edits triggers a single rebuild.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(global.logLevel)
			cfg, err := loadPlaybook(global.playbook, logger)
			if err != nil {
				return err
			}
			b, err := newBuilder(cfg, logger)
			if err != nil {
				return err
			}

			watchConfig := aggregate.DefaultWatchConfig()
			if debounce != "" {
				watchConfig.DebounceDelay = debounce
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			loop := &watchLoop{
				builder:     b,
				watchConfig: watchConfig,
				metricsOut:  metricsOut,
				out:         cmd.OutOrStdout(),
			}
			return loop.run(ctx)
		},
	}

	cmd.Flags().StringVar(&debounce, "debounce", "", "Quiet period before rebuilding (e.g. 250ms)")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write build metrics to this file after every build")

	return cmd
}

// watchLoop rebuilds the catalog on content changes until its context ends.
type watchLoop struct {
	builder     *builder
	watchConfig aggregate.WatchConfig
	metricsOut  string
	out         io.Writer

	// onBuild, when set, is called after every build.
	onBuild func(*catalog.Catalog, error)
}

func (l *watchLoop) run(ctx context.Context) error {
	roots, err := l.builder.sourceRoots()
	if err != nil {
		return err
	}
	watcher, err := aggregate.NewWatcher(l.watchConfig, roots, l.builder.logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Stop()

	// Failed builds are reported and the loop keeps watching for a fix.
	l.rebuild(ctx, "initial build")

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			l.builder.logger.Info("Stopped watching")
			return nil
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			changed := 1
			// One debounce window can deliver several events; rebuild once.
		drain:
			for {
				select {
				case _, ok := <-watcher.Events():
					if !ok {
						break drain
					}
					changed++
				default:
					break drain
				}
			}
			l.builder.logger.Debug("Content changed",
				"path", event.Path,
				"op", event.Operation,
				"changes", changed)
			l.rebuild(ctx, fmt.Sprintf("%d change(s), last %s %s", changed, event.Operation, event.Path))
		}
	}
}

func (l *watchLoop) rebuild(ctx context.Context, reason string) {
	c, err := l.builder.build(ctx)
	if metricsErr := l.builder.writeMetrics(l.metricsOut); metricsErr != nil {
		l.builder.logger.Warn("Failed to write metrics", "error", metricsErr)
	}
	if err != nil {
		l.builder.logger.Error("Catalog build failed", "reason", reason, "error", err)
	} else {
		stats := c.Stats()
		fmt.Fprintf(l.out, "Built catalog %s (%s): %d components, %d versions, %d resources\n",
			c.BuildID(), reason, stats.Components, stats.Versions, stats.Resources)
	}
	if l.onBuild != nil {
		l.onBuild(c, err)
	}
}
