package router

import (
	"github.com/go-chi/chi/v5"
	ctrl "github.com/luiz-custodio/email-send/internal/http/controllers/email"
	mw "github.com/luiz-custodio/email-send/internal/http/middlewares"
)

// RegisterEmailRoutes registra las rutas del relay.
// Las respuestas reflejan el estado del relay en ese momento: no se cachean.
func RegisterEmailRoutes(r chi.Router, c *ctrl.Controllers) {
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())

		r.Post("/send-emails", c.Relay.SendEmails)
		r.Get("/test-connection", c.Relay.TestConnection)
	})
}
