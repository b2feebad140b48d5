package email

import (
	"errors"
	"net/http"

	dto "github.com/luiz-custodio/email-send/internal/http/dto/email"
	httperrors "github.com/luiz-custodio/email-send/internal/http/errors"
	"github.com/luiz-custodio/email-send/internal/http/helpers"
	svc "github.com/luiz-custodio/email-send/internal/http/services/email"
	"github.com/luiz-custodio/email-send/internal/observability/logger"
	"go.uber.org/zap"
)

// RelayController maneja POST /send-emails y GET /test-connection.
type RelayController struct {
	service svc.RelayService
}

// NewRelayController crea el controller del relay.
func NewRelayController(service svc.RelayService) *RelayController {
	return &RelayController{service: service}
}

// SendEmails maneja POST /send-emails
func (c *RelayController) SendEmails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RelayController.SendEmails"))

	var req dto.SendEmailsRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if err := helpers.ValidateStruct(req); err != nil {
		log.Debug("invalid send request", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	resp, err := c.service.SendEmails(ctx, req)
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, resp)
}

// TestConnection maneja GET /test-connection. Siempre 200; el estado va en el body.
func (c *RelayController) TestConnection(w http.ResponseWriter, r *http.Request) {
	resp := c.service.TestConnection(r.Context())
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// handleError mapea errores del service a respuestas HTTP.
func (c *RelayController) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, svc.ErrCredentialsMissing):
		log.Error("email credentials not configured")
		httperrors.WriteError(w, httperrors.ErrEmailCredentialsMissing.
			WithDetail("Credenciales de email no configuradas").
			WithCause(err))
	case errors.Is(err, svc.ErrRelayUnavailable):
		httperrors.WriteError(w, httperrors.ErrEmailRelayUnavailable.
			WithDetail("Error al conectar con el servidor de email: "+err.Error()).
			WithCause(err))
	default:
		log.Error("unexpected send error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}
