package middlewares

import (
	"net/http"
	"strings"

	"github.com/luiz-custodio/email-send/internal/metrics"
)

const defaultAllowHeaders = "Content-Type, Authorization, X-Request-ID"

// WithCORS permite un único origen (el front-end) con credenciales.
// Todos los métodos; los headers pedidos en el preflight se reflejan tal cual.
// Un origen distinto no recibe headers CORS y el navegador bloquea la respuesta.
func WithCORS(allowed string) Middleware {
	trim := func(s string) string { return strings.TrimRight(strings.TrimSpace(s), "/") }
	allowed = trim(allowed)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := trim(r.Header.Get("Origin"))
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			// Vary headers para caches/proxies
			h := w.Header()
			h.Add("Vary", "Origin")
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")

			switch {
			case origin == "":
			case strings.EqualFold(origin, allowed):
				h.Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Expose-Headers", "X-Request-ID")
				if preflight {
					h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS")
					if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
						h.Set("Access-Control-Allow-Headers", reqHeaders)
					} else {
						h.Set("Access-Control-Allow-Headers", defaultAllowHeaders)
					}
					h.Set("Access-Control-Max-Age", "600")
				}
			default:
				metrics.CORSRejectsTotal.Inc()
			}

			if preflight {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
