// Package metrics owns the process Prometheus registry and its scrape listener.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coreconfig "github.com/m3rciful/avtobot/core/config"
	"github.com/m3rciful/avtobot/core/logger"
)

// NewRegistry returns a registry preloaded with Go runtime and process collectors.
func NewRegistry(extra ...prometheus.Collector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	base := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range append(base, extra...) {
		if c == nil {
			continue
		}
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register collector: %w", err)
		}
	}
	return reg, nil
}

// Server exposes a gatherer over HTTP.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds cfg.Listen and returns a server ready to Serve. A nil server
// and nil error mean the listener is disabled.
func Listen(cfg coreconfig.MetricsConfig, g prometheus.Gatherer) (*Server, error) {
	if cfg.Listen == "" {
		return nil, nil
	}
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen %s: %w", cfg.Listen, err)
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}, nil
}

// Addr reports the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Serve blocks until ctx is done, then shuts the listener down.
func (s *Server) Serve(ctx context.Context) error {
	log := logger.Component("metrics")
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(s.ln)
	}()
	log.Info("metrics listener started",
		slog.String("event", "metrics.listen"),
		slog.String("listen", s.Addr()),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := s.srv.Shutdown(shutdownCtx)
	log.Info("metrics listener stopped",
		slog.String("event", "metrics.stop"),
		slog.String("status", logger.Status(err)),
	)
	return err
}
