package middlewares

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/luiz-custodio/email-send/internal/metrics"
)

// unmatchedRoute agrupa paths sin ruta para no explotar la cardinalidad.
const unmatchedRoute = "unmatched"

// WithMetrics instrumenta requests HTTP (contador, latencia, inflight).
// Se monta con chi.Router.Use para que el label path sea el patrón de la ruta.
func WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method := strings.ToUpper(r.Method)
			start := time.Now()
			inflight := metrics.HTTPInflight.WithLabelValues(method)
			inflight.Inc()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				inflight.Dec()
				path := routePattern(r)
				metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
				metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unmatchedRoute
}
