package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/oggyb/exotel-gateway/internal/middleware"
	routes "github.com/oggyb/exotel-gateway/internal/router"
	"go.uber.org/zap"
)

// Server owns the underlying http.Server instance.
type Server struct {
	http *http.Server
}

// NewHandler builds the routed handler with the standard middleware stack.
func NewHandler(deps routes.AppDeps, log *zap.Logger, obs middleware.HTTPObserver) http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.RequestLogger(log, obs),
		chimw.Recoverer,
	)
	routes.Register(r, deps)
	return r
}

// New creates a new HTTP server bound to addr.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start runs the HTTP server and blocks until ListenAndServe returns.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server, waiting for in-flight
// requests to complete until the given context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
