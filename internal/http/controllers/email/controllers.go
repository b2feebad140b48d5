// Package email contiene los controllers del relay de emails.
package email

import svc "github.com/luiz-custodio/email-send/internal/http/services/email"

// Controllers agrupa todos los controllers del dominio email.
type Controllers struct {
	Relay *RelayController
}

// NewControllers crea el agregador de controllers email.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Relay: NewRelayController(s.Relay),
	}
}
