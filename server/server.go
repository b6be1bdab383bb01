package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theoremus-urban-solutions/hkbus-eta/config"
	"github.com/theoremus-urban-solutions/hkbus-eta/metrics"
	"github.com/theoremus-urban-solutions/hkbus-eta/registry"
	"github.com/theoremus-urban-solutions/hkbus-eta/store"
)

const shutdownTimeout = 10 * time.Second

// Server serves favourites, merged stop lists and widget data over HTTP.
type Server struct {
	cfg      config.AppConfig
	registry *registry.Registry
	store    *store.DB
	metrics  *metrics.Metrics
	now      func() time.Time

	srv *http.Server
	ln  net.Listener
}

// New creates a server. A nil m gets a fresh metrics registry.
func New(cfg config.AppConfig, reg *registry.Registry, db *store.DB, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.New()
	}
	return &Server{cfg: cfg, registry: reg, store: db, metrics: m, now: time.Now}
}

// Handler returns the routed and instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/routes/stops", s.handleRouteStops)
	mux.HandleFunc("GET /api/favourites", s.handleListFavourites)
	mux.HandleFunc("POST /api/favourites", s.handleAddFavourite)
	mux.HandleFunc("GET /api/favourites/resolve", s.handleResolveFavourites)
	mux.HandleFunc("DELETE /api/favourites/{id}", s.handleDeleteFavourite)
	mux.HandleFunc("GET /api/favourites/{id}/widget", s.handleWidget)
	mux.HandleFunc("GET /api/favourites/{id}/display", s.handleDisplay)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return s.instrument(mux)
}

// Start listens on the configured port and serves in the background.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(s.cfg.Server.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout:      time.Duration(s.cfg.Server.WriteTimeoutMS) * time.Millisecond,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
		}
	}()
	slog.Info("server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// WaitForShutdown blocks until SIGINT, SIGTERM or ctx cancellation, then
// drains in-flight requests.
func (s *Server) WaitForShutdown(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
		return
	}
	slog.Info("server shut down successfully")
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		s.metrics.ObserveHTTP(path, rec.code, time.Since(start))
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "code", rec.code)
	})
}
