// Package router arma el árbol de rutas HTTP sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	emailctrl "github.com/luiz-custodio/email-send/internal/http/controllers/email"
	healthctrl "github.com/luiz-custodio/email-send/internal/http/controllers/health"
	httperrors "github.com/luiz-custodio/email-send/internal/http/errors"
	mw "github.com/luiz-custodio/email-send/internal/http/middlewares"
)

// Deps contiene todas las dependencias del router.
type Deps struct {
	Email  *emailctrl.Controllers
	Health *healthctrl.Controllers

	// AllowedOrigin es el único origen CORS permitido (el front-end).
	AllowedOrigin string

	// Metrics expone /metrics; nil => deshabilitado.
	Metrics http.Handler
}

// New construye el handler raíz con la cadena de middlewares base.
//
// Orden: request id -> logging -> recover -> CORS -> security headers -> metrics -> ruta.
// Recover va dentro de logging para que el 500 de un panic quede logueado.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
		mw.WithCORS(deps.AllowedOrigin),
		mw.WithSecurityHeaders(),
		mw.WithMetrics(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	if deps.Health != nil {
		RegisterHealthRoutes(r, deps.Health)
	}
	if deps.Email != nil {
		RegisterEmailRoutes(r, deps.Email)
	}
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	return r
}
