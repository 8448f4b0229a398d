package metrics

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zhulik/pal"

	"storyd/internal/config"
)

type Server struct {
	Logger *slog.Logger
	Config *config.Config
	Pal    *pal.Pal

	srv *http.Server
}

func (s *Server) Init(_ context.Context) error {
	s.Logger = s.Logger.With("component", "metrics.Server")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", s.handleHealth)

	s.srv = &http.Server{Addr: s.Config.MetricsAddr, Handler: mux}

	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}

	s.Logger.Info("metrics server listening", "addr", s.srv.Addr)
	go s.srv.Serve(ln) //nolint:errcheck

	return nil
}

// handleHealth aggregates the health of every registered service: the DB ping,
// the NATS round trip and whatever else the container holds.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Pal.HealthCheck(r.Context()); err != nil {
		s.Logger.Warn("health check failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
