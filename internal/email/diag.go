package email

import (
	"errors"
	"net"
	"strings"

	"github.com/emersion/go-smtp"
)

// Códigos de diagnóstico (label de métricas y campo diag_code en logs).
const (
	DiagDial             = "dial"
	DiagTLS              = "tls"
	DiagAuth             = "auth"
	DiagTimeout          = "timeout"
	DiagRateLimited      = "rate_limited"
	DiagInvalidRecipient = "invalid_recipient"
	DiagRejected         = "rejected"
	DiagNetwork          = "network"
	DiagUnknown          = "unknown"
)

// SMTPDiag contiene información de diagnóstico de un error SMTP.
// Temporary es informativo: el dispatcher no reintenta.
type SMTPDiag struct {
	Code      string
	Temporary bool
}

// DiagnoseSMTP clasifica un error del transporte.
// Primero mira la respuesta SMTP estructurada; si no la hay, cae a heurísticas sobre el texto.
func DiagnoseSMTP(err error) SMTPDiag {
	if err == nil {
		return SMTPDiag{Code: DiagUnknown}
	}

	var ce *ConnectError
	if errors.As(err, &ce) {
		switch ce.Stage {
		case stageStartTLS:
			if errors.Is(err, ErrStartTLSUnsupported) {
				return SMTPDiag{Code: DiagTLS}
			}
		case stageAuth:
			if d, ok := diagnoseReply(err); ok && d.Code != DiagAuth && d.Temporary {
				return d
			}
			return SMTPDiag{Code: DiagAuth}
		}
	}

	if d, ok := diagnoseReply(err); ok {
		return d
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return SMTPDiag{Code: DiagTimeout, Temporary: true}
	}

	s := strings.ToLower(err.Error())

	if strings.Contains(s, "timeout") {
		return SMTPDiag{Code: DiagTimeout, Temporary: true}
	}

	// dial/conn/dns
	if strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connectex:") || // windows
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "dial tcp") {
		return SMTPDiag{Code: DiagDial, Temporary: true}
	}

	// tls/handshake/cert
	if strings.Contains(s, "x509:") ||
		strings.Contains(s, "tls") && (strings.Contains(s, "handshake") || strings.Contains(s, "certificate")) {
		return SMTPDiag{Code: DiagTLS}
	}

	if strings.Contains(s, "username and password not accepted") ||
		strings.Contains(s, "authentication unsuccessful") ||
		strings.Contains(s, "authentication failed") {
		return SMTPDiag{Code: DiagAuth}
	}

	if errors.As(err, &ne) {
		return SMTPDiag{Code: DiagNetwork, Temporary: true}
	}
	return SMTPDiag{Code: DiagUnknown}
}

// diagnoseReply clasifica por código de respuesta SMTP (RFC 5321 / 3463).
func diagnoseReply(err error) (SMTPDiag, bool) {
	var se *smtp.SMTPError
	if !errors.As(err, &se) {
		return SMTPDiag{}, false
	}
	enh := se.EnhancedCode
	switch {
	case se.Code == 535 || se.Code == 534 || se.Code == 530 || enh == smtp.EnhancedCode{5, 7, 8}:
		return SMTPDiag{Code: DiagAuth}, true
	case se.Code == 421 || se.Code == 450 || se.Code == 451 || se.Code == 452 ||
		enh == smtp.EnhancedCode{4, 7, 0}:
		return SMTPDiag{Code: DiagRateLimited, Temporary: true}, true
	case enh == smtp.EnhancedCode{5, 1, 1} || se.Code == 550 && strings.Contains(strings.ToLower(se.Message), "unknown"):
		return SMTPDiag{Code: DiagInvalidRecipient}, true
	case se.Code == 550 || se.Code == 553 || se.Code == 554 || enh == smtp.EnhancedCode{5, 7, 1}:
		return SMTPDiag{Code: DiagRejected}, true
	case se.Code >= 400 && se.Code < 500:
		return SMTPDiag{Code: DiagRateLimited, Temporary: true}, true
	}
	return SMTPDiag{Code: DiagUnknown}, true
}
