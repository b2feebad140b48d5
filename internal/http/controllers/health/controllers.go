// Package health contiene el controller del endpoint raíz.
package health

import (
	"net/http"

	dto "github.com/luiz-custodio/email-send/internal/http/dto/health"
	"github.com/luiz-custodio/email-send/internal/http/helpers"
)

// MsgServiceReady es el mensaje de GET /.
const MsgServiceReady = "API de envío de emails funcionando"

// Controllers agrupa todos los controllers del dominio health.
type Controllers struct {
	Root *RootController
}

// NewControllers crea el agregador de controllers health.
func NewControllers() *Controllers {
	return &Controllers{Root: &RootController{}}
}

// RootController maneja GET /.
type RootController struct{}

// Root responde que el servicio está listo. No toca el relay.
func (c *RootController) Root(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, dto.RootResponse{Message: MsgServiceReady})
}
