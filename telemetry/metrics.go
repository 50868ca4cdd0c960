package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Azhovan/fromenv"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const metricsPortVar = "TRACING_METRICS_PORT"

// DefaultMetricsPort is used when TRACING_METRICS_PORT is unset or invalid.
const DefaultMetricsPort uint16 = 9000

// MetricsConfig configures the metrics listener.
type MetricsConfig struct {
	Port uint16
}

var metricsItems = []fromenv.Item{
	{
		Var:         metricsPortVar,
		Description: "Port on which to serve metrics, u16, defaults to 9000",
		Optional:    true,
	},
}

// Inventory implements fromenv.Config.
func (MetricsConfig) Inventory() []fromenv.Item {
	return metricsItems
}

// FromEnv implements fromenv.Config. It never fails: a missing or
// unparseable port falls back to DefaultMetricsPort.
func (c *MetricsConfig) FromEnv(src fromenv.Source) error {
	port, err := fromenv.LoadVar(src, metricsPortVar, fromenv.Uint[uint16])
	if err != nil {
		port = DefaultMetricsPort
	}
	c.Port = port
	return nil
}

// MetricsServer serves /metrics and /healthz.
type MetricsServer struct {
	cfg    MetricsConfig
	srv    *http.Server
	ln     net.Listener
	logger zerolog.Logger
	errCh  chan error
}

// NewMetricsServer creates a server exposing reg. It does not listen until
// Start is called.
func NewMetricsServer(cfg MetricsConfig, reg *prometheus.Registry, logger zerolog.Logger) *MetricsServer {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		cfg: cfg,
		srv: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
		errCh:  make(chan error, 1),
	}
}

// Start binds 0.0.0.0:port and serves in the background.
func (s *MetricsServer) Start() error {
	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(int(s.cfg.Port)))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("telemetry: metrics listener: %w", err)
	}
	s.ln = ln

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("metrics server error")
			s.errCh <- err
		}
		close(s.errCh)
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *MetricsServer) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops the server gracefully.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.ln == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.errCh
}
