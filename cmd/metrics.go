package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/giantswarm/kubedriver/internal/instrumentation"
)

const metricsShutdownTimeout = 5 * time.Second

type metricsServer struct {
	provider *instrumentation.Provider
	server   *http.Server
	addr     string
}

// startMetricsServer builds a Prometheus-backed instrumentation provider on a
// private registry and serves it on addr under /metrics.
func startMetricsServer(ctx context.Context, addr, version string, logger *slog.Logger) (*metricsServer, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	registry := prometheus.NewRegistry()
	config, err := instrumentationConfig(version)
	if err != nil {
		return nil, err
	}
	config.PrometheusRegisterer = registry

	provider, err := instrumentation.NewProvider(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m := &metricsServer{
		provider: provider,
		addr:     listener.Addr().String(),
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}

	go func() {
		if err := m.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("metrics server started", "addr", m.addr, "endpoint", "/metrics")
	return m, nil
}

func (m *metricsServer) stop(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()

	if err := m.server.Shutdown(ctx); err != nil {
		logger.Error("error shutting down metrics server", "error", err)
	}
	if err := m.provider.Shutdown(ctx); err != nil {
		logger.Error("error shutting down instrumentation provider", "error", err)
	}
}
