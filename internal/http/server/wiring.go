// Package server arma el handler HTTP y el *http.Server a partir de la config.
package server

import (
	"net/http"
	"time"

	"github.com/luiz-custodio/email-send/internal/config"
	"github.com/luiz-custodio/email-send/internal/email"
	emailctrl "github.com/luiz-custodio/email-send/internal/http/controllers/email"
	healthctrl "github.com/luiz-custodio/email-send/internal/http/controllers/health"
	"github.com/luiz-custodio/email-send/internal/http/router"
	emailsvc "github.com/luiz-custodio/email-send/internal/http/services/email"
	"github.com/luiz-custodio/email-send/internal/metrics"
)

// NewDispatcher crea el dispatcher SMTP con los parámetros del relay configurado.
func NewDispatcher(cfg *config.Config) *email.Dispatcher {
	return email.New(email.Options{
		Host:               cfg.SMTP.Host,
		Port:               cfg.SMTP.Port,
		LocalName:          cfg.SMTP.LocalName,
		Timeout:            cfg.SMTP.Timeout,
		SendDelay:          cfg.SMTP.SendDelay,
		InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
	})
}

// Credentials arma las credenciales del remitente desde la config.
func Credentials(cfg *config.Config) email.Credentials {
	return email.Credentials{Address: cfg.SMTP.Username, Secret: cfg.SMTP.Password}
}

// BuildHandler cablea relay -> services -> controllers -> router.
// relay es inyectable para apuntar a un relay de pruebas.
func BuildHandler(cfg *config.Config, relay emailsvc.Relay) http.Handler {
	services := emailsvc.NewServices(emailsvc.RelayDeps{
		Relay:       relay,
		Credentials: Credentials(cfg),
	})

	deps := router.Deps{
		Email:         emailctrl.NewControllers(services),
		Health:        healthctrl.NewControllers(),
		AllowedOrigin: cfg.Server.CORSAllowedOrigin,
	}
	if cfg.Server.MetricsEnabled {
		deps.Metrics = metrics.Handler(nil)
	}
	return router.New(deps)
}

// New crea el *http.Server. WriteTimeout 0 (default) deja correr envíos largos:
// un dispatch tarda al menos N * send_delay.
func New(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
