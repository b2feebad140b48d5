package router

import (
	"github.com/go-chi/chi/v5"
	ctrl "github.com/luiz-custodio/email-send/internal/http/controllers/health"
)

// RegisterHealthRoutes registra GET /.
func RegisterHealthRoutes(r chi.Router, c *ctrl.Controllers) {
	r.Get("/", c.Root.Root)
}
