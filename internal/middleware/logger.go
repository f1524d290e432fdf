package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HTTPObserver records served requests. *metrics.Metrics satisfies it.
type HTTPObserver interface {
	ObserveHTTP(handler, method string, code int, elapsed time.Duration)
}

// RequestLogger logs method, route, status, remote address and latency for
// every request, and reports the same to obs when it is non-nil.
func RequestLogger(log *zap.Logger, obs HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			// Prefer the route pattern so /calls/{sid} is one series, not one per SID.
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}

			if obs != nil {
				obs.ObserveHTTP(route, r.Method, status, elapsed)
			}
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.String("remote", r.RemoteAddr),
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.Duration("elapsed", elapsed),
			)
		})
	}
}
