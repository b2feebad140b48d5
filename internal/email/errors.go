package email

import "errors"

var (
	// ErrMissingCredentials: remitente o password no configurados.
	ErrMissingCredentials = errors.New("email: credentials not configured")
	// ErrStartTLSUnsupported: el relay no anuncia STARTTLS; no se envían credenciales en claro.
	ErrStartTLSUnsupported = errors.New("smtp: server doesn't support STARTTLS")
	// ErrAuthUnsupported: el relay no anuncia ningún mecanismo soportado (PLAIN/LOGIN).
	ErrAuthUnsupported = errors.New("smtp: server doesn't support a usable AUTH mechanism")
)

// ConnectError es el fallo fatal de abrir la sesión (dial, STARTTLS o AUTH).
// Ningún destinatario fue intentado cuando se retorna.
type ConnectError struct {
	Stage string // dial | starttls | auth
	Addr  string
	Err   error
}

func (e *ConnectError) Error() string {
	return e.Err.Error()
}

func (e *ConnectError) Unwrap() error { return e.Err }

func connectErr(stage, addr string, err error) *ConnectError {
	return &ConnectError{Stage: stage, Addr: addr, Err: err}
}

// IsConnectError reporta si err (o algo que envuelve) es un *ConnectError.
func IsConnectError(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce)
}
