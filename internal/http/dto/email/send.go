// Package email contiene los DTOs del relay de emails.
package email

// SendEmailsRequest es el body de POST /send-emails.
// Subject y Body son punteros para distinguir "ausente" (422) de "vacío" (válido).
type SendEmailsRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1,dive,email"`
	Subject    *string  `json:"subject" validate:"required"`
	Body       *string  `json:"body" validate:"required"`
	IsHTML     bool     `json:"is_html"`
}

// FailedRecipient es un destinatario rechazado con el texto del error del transporte.
type FailedRecipient struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// SendResults agrupa los destinatarios en el orden del request.
type SendResults struct {
	Successful []string          `json:"successful"`
	Failed     []FailedRecipient `json:"failed"`
}

// SendEmailsResponse es la respuesta 200 de POST /send-emails.
type SendEmailsResponse struct {
	Message     string      `json:"message"`
	Results     SendResults `json:"results"`
	TotalSent   int         `json:"total_sent"`
	TotalFailed int         `json:"total_failed"`
}

// ConnectionResponse es la respuesta de GET /test-connection (siempre 200).
type ConnectionResponse struct {
	Status  string `json:"status"` // "success" | "error"
	Message string `json:"message"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)
