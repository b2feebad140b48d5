package email

import (
	"fmt"
	"strings"
)

// Credentials identifica al remitente ante el relay.
// Address se usa también como From y como MAIL FROM.
type Credentials struct {
	Address string
	Secret  string
}

// Valid indica si ambas partes están presentes.
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.Address) != "" && c.Secret != ""
}

// String nunca expone el secreto (fmt/zap.Any lo usan).
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Address: %q, Secret: [REDACTED]}", c.Address)
}

// ContentType del único body part.
type ContentType int

const (
	ContentPlain ContentType = iota
	ContentHTML
)

// MIME retorna el media type del body part.
func (t ContentType) MIME() string {
	if t == ContentHTML {
		return "text/html"
	}
	return "text/plain"
}

// SendRequest es inmutable durante un Dispatch.
// Las direcciones llegan ya validadas por la capa HTTP.
type SendRequest struct {
	Recipients []string
	Subject    string
	Body       string
	Content    ContentType
}

// Outcome es el resultado de un destinatario: éxito, o fallo con el texto del error.
type Outcome struct {
	Recipient string
	Err       error
}

// OK indica si el envío fue aceptado por el relay.
func (o Outcome) OK() bool { return o.Err == nil }

// Failure es un destinatario rechazado con el mensaje del transporte.
type Failure struct {
	Email string
	Error string
}

// Report agrega los Outcome preservando el orden de entrada.
type Report struct {
	Successful []string
	Failed     []Failure
}

// Record agrega un Outcome a la lista que corresponda.
func (r *Report) Record(o Outcome) {
	if o.OK() {
		r.Successful = append(r.Successful, o.Recipient)
		return
	}
	r.Failed = append(r.Failed, Failure{Email: o.Recipient, Error: o.Err.Error()})
}

// TotalSent es len(Successful).
func (r Report) TotalSent() int { return len(r.Successful) }

// TotalFailed es len(Failed).
func (r Report) TotalFailed() int { return len(r.Failed) }

// ConnectionStatus es el resultado del health check contra el relay.
type ConnectionStatus struct {
	OK      bool
	Message string
}
