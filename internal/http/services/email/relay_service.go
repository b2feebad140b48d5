// Package email contiene el service que conecta la API HTTP con el dispatcher SMTP.
package email

import (
	"context"
	"errors"

	relay "github.com/luiz-custodio/email-send/internal/email"
	dto "github.com/luiz-custodio/email-send/internal/http/dto/email"
	"github.com/luiz-custodio/email-send/internal/observability/logger"
)

// MsgSendCompleted acompaña al reporte de POST /send-emails.
const MsgSendCompleted = "Proceso de envío concluido"

// Errores del service que el controller mapea a HTTP.
var (
	ErrCredentialsMissing = errors.New("email credentials not configured")
	ErrRelayUnavailable   = errors.New("email relay unavailable")
)

// RelayService define las operaciones de la API de envío.
type RelayService interface {
	SendEmails(ctx context.Context, req dto.SendEmailsRequest) (*dto.SendEmailsResponse, error)
	TestConnection(ctx context.Context) dto.ConnectionResponse
}

// Relay abstrae al dispatcher SMTP (email.Dispatcher lo implementa).
type Relay interface {
	Dispatch(ctx context.Context, req relay.SendRequest, creds relay.Credentials) (relay.Report, error)
	CheckConnection(ctx context.Context, creds relay.Credentials) relay.ConnectionStatus
}

// RelayDeps contiene las dependencias del service.
type RelayDeps struct {
	Relay       Relay
	Credentials relay.Credentials
}

type relayService struct {
	relay Relay
	creds relay.Credentials
}

// NewRelayService crea el service de envío.
func NewRelayService(deps RelayDeps) RelayService {
	return &relayService{relay: deps.Relay, creds: deps.Credentials}
}

// SendEmails valida credenciales, despacha y arma la respuesta.
// El request ya viene validado por el controller.
func (s *relayService) SendEmails(ctx context.Context, req dto.SendEmailsRequest) (*dto.SendEmailsResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("RelayService.SendEmails"))

	if !s.creds.Valid() {
		return nil, ErrCredentialsMissing
	}

	sendReq := relay.SendRequest{
		Recipients: req.Recipients,
		Content:    relay.ContentPlain,
	}
	if req.Subject != nil {
		sendReq.Subject = *req.Subject
	}
	if req.Body != nil {
		sendReq.Body = *req.Body
	}
	if req.IsHTML {
		sendReq.Content = relay.ContentHTML
	}

	// Un cliente que corta la conexión no aborta el envío en curso.
	report, err := s.relay.Dispatch(context.WithoutCancel(ctx), sendReq, s.creds)
	if err != nil {
		if errors.Is(err, relay.ErrMissingCredentials) {
			return nil, ErrCredentialsMissing
		}
		if relay.IsConnectError(err) {
			return nil, &RelayError{Err: err}
		}
		return nil, err
	}

	log.Debug("send completed",
		logger.Int("total_sent", report.TotalSent()),
		logger.Int("total_failed", report.TotalFailed()),
	)
	return toResponse(report), nil
}

// TestConnection nunca falla: el resultado va en el body.
func (s *relayService) TestConnection(ctx context.Context) dto.ConnectionResponse {
	st := s.relay.CheckConnection(ctx, s.creds)
	if !st.OK {
		return dto.ConnectionResponse{Status: dto.StatusError, Message: st.Message}
	}
	return dto.ConnectionResponse{Status: dto.StatusSuccess, Message: st.Message}
}

func toResponse(r relay.Report) *dto.SendEmailsResponse {
	resp := &dto.SendEmailsResponse{
		Message: MsgSendCompleted,
		Results: dto.SendResults{
			Successful: make([]string, 0, len(r.Successful)),
			Failed:     make([]dto.FailedRecipient, 0, len(r.Failed)),
		},
		TotalSent:   r.TotalSent(),
		TotalFailed: r.TotalFailed(),
	}
	resp.Results.Successful = append(resp.Results.Successful, r.Successful...)
	for _, f := range r.Failed {
		resp.Results.Failed = append(resp.Results.Failed, dto.FailedRecipient{Email: f.Email, Error: f.Error})
	}
	return resp
}

// RelayError envuelve un fallo al abrir la sesión SMTP.
// Is(ErrRelayUnavailable) es true; Error() conserva el texto del transporte.
type RelayError struct {
	Err error
}

func (e *RelayError) Error() string { return e.Err.Error() }

func (e *RelayError) Unwrap() error { return e.Err }

func (e *RelayError) Is(target error) bool { return target == ErrRelayUnavailable }
