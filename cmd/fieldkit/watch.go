package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/thewpsquad/fieldkit/pkg/adapters/fs"
	fklifecycle "github.com/thewpsquad/fieldkit/pkg/adapters/lifecycle"
	"github.com/thewpsquad/fieldkit/pkg/metrics"
)

var metricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch [field-type]",
	Short: "Reload the vault on change and print the refreshed field keys",
	Long: `Watch the vault for changes. After every reload the in-process caches are
reset and the formatted field keys of field-type (default native) are printed.
Persistent cache entries expire through their TTL only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fieldType := "native"
		if len(args) == 1 {
			fieldType = args[0]
		}
		ft, err := parseFieldType(fieldType)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		promRegistry := prometheus.NewRegistry()
		m := metrics.New(promRegistry)
		if metricsAddr != "" {
			serveMetrics(ctx, metricsAddr, promRegistry)
		}

		a, err := newApp(ctx, m)
		if err != nil {
			return err
		}
		defer a.Close()

		repo, ok := a.store.(*fs.Repository)
		if !ok {
			return fmt.Errorf("watch requires the fs adapter, got %s", a.cfg.Store.Adapter)
		}

		p, err := a.registry.Processor(ft)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := writeJSON(out, p.FormattedFields(ctx)); err != nil {
			return err
		}

		reloads := make(chan fs.Event, 16)
		if err := repo.Watch(ctx, func(e fs.Event) {
			select {
			case reloads <- e:
			default:
				slog.Warn("dropping reload event", "event", e.String())
			}
		}); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}

		source := fklifecycle.NewSource(reloads)
		if err := source.Start(ctx); err != nil {
			return err
		}

		slog.Info("watching vault", "path", a.cfg.Store.Path, "field_type", ft)
		for event := range source.Events() {
			a.registry.Reset()
			slog.Info("vault reloaded", "event", event.String())

			p, err := a.registry.Processor(ft)
			if err != nil {
				return err
			}
			if err := writeJSON(out, p.FormattedFields(ctx)); err != nil {
				return err
			}
		}
		return nil
	},
}

// serveMetrics exposes the collectors on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&metricsAddr, "metrics", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}
