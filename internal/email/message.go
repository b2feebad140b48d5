package email

import (
	mail "github.com/go-mail/mail"
)

// buildMessage arma el mensaje de un destinatario: un solo body part,
// text/html o text/plain según req.Content (charset UTF-8).
func buildMessage(from, to string, req SendRequest) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", req.Subject)
	m.SetBody(req.Content.MIME(), req.Body)
	return m
}
