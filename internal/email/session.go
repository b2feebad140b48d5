package email

import (
	"context"
	"crypto/tls"
	"net"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	mail "github.com/go-mail/mail"
	"github.com/luiz-custodio/email-send/internal/observability/logger"
)

const (
	stageDial     = "dial"
	stageStartTLS = "starttls"
	stageAuth     = "auth"
)

// session es una conexión SMTP autenticada, válida para N envíos.
// No es segura para uso concurrente: cada Dispatch abre la suya.
type session struct {
	c    *smtp.Client
	from string
}

// open ejecuta dial -> EHLO -> STARTTLS -> EHLO(LocalName) -> AUTH.
// Cualquier fallo cierra la conexión y retorna *ConnectError.
func (d *Dispatcher) open(ctx context.Context, creds Credentials) (*session, error) {
	addr := d.Addr()

	nd := &net.Dialer{Timeout: d.opts.Timeout}
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, connectErr(stageDial, addr, err)
	}

	// STARTTLS obligatorio: nunca mandamos credenciales en claro.
	// NewClientStartTLS cierra conn si falla.
	c, err := smtp.NewClientStartTLS(conn, d.tlsConfig())
	if err != nil {
		return nil, connectErr(stageStartTLS, addr, startTLSErr(err))
	}
	if d.opts.Timeout > 0 {
		c.CommandTimeout = d.opts.Timeout
		c.SubmissionTimeout = d.opts.Timeout
	}

	fail := func(stage string, err error) (*session, error) {
		_ = c.Close()
		return nil, connectErr(stage, addr, err)
	}

	// Tras el upgrade el cliente vuelve a saludar; ese EHLO lleva nuestro nombre.
	if err := c.Hello(d.opts.LocalName); err != nil {
		return fail(stageStartTLS, err)
	}

	mech, auth := saslClient(c, creds)
	if auth == nil {
		return fail(stageAuth, ErrAuthUnsupported)
	}
	if err := c.Auth(auth); err != nil {
		return fail(stageAuth, err)
	}

	logger.From(ctx).Debug("relay session opened",
		logger.Component("email"),
		logger.RelayAddr(addr),
		logger.Sender(creds.Address),
		logger.AuthMech(mech),
	)
	return &session{c: c, from: creds.Address}, nil
}

// startTLSErr traduce el error sin tipo de go-smtp cuando el relay no anuncia STARTTLS.
func startTLSErr(err error) error {
	if err.Error() == ErrStartTLSUnsupported.Error() {
		return ErrStartTLSUnsupported
	}
	return err
}

// saslClient elige el mecanismo según lo anunciado tras STARTTLS.
// PLAIN primero; LOGIN para relays que sólo anuncian LOGIN (Outlook).
func saslClient(c *smtp.Client, creds Credentials) (string, sasl.Client) {
	ok, adv := c.Extension("AUTH")
	if !ok {
		return "", nil
	}
	mechs := strings.Fields(strings.ToUpper(adv))
	has := func(m string) bool {
		for _, v := range mechs {
			if v == m {
				return true
			}
		}
		return false
	}
	switch {
	case has(sasl.Plain):
		return sasl.Plain, sasl.NewPlainClient("", creds.Address, creds.Secret)
	case has(sasl.Login):
		return sasl.Login, sasl.NewLoginClient(creds.Address, creds.Secret)
	}
	return "", nil
}

func (d *Dispatcher) tlsConfig() *tls.Config {
	var cfg *tls.Config
	if d.opts.TLSConfig != nil {
		cfg = d.opts.TLSConfig.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.ServerName == "" {
		cfg.ServerName = d.opts.Host
	}
	if d.opts.InsecureSkipVerify {
		cfg.InsecureSkipVerify = true // solo dev
	}
	return cfg
}

// send entrega m a un único destinatario (MAIL / RCPT / DATA).
// Ante un fallo manda RSET para que la sesión siga usable por el próximo destinatario.
func (s *session) send(to string, m *mail.Message) error {
	if err := s.c.Mail(s.from, nil); err != nil {
		return s.abort(err)
	}
	if err := s.c.Rcpt(to, nil); err != nil {
		return s.abort(err)
	}
	w, err := s.c.Data()
	if err != nil {
		return s.abort(err)
	}
	if _, err := m.WriteTo(w); err != nil {
		_ = w.Close()
		return s.abort(err)
	}
	if err := w.Close(); err != nil {
		return s.abort(err)
	}
	return nil
}

// abort resetea la transacción en curso y devuelve el error original.
// El error de RSET se descarta: si la conexión murió, el próximo MAIL lo va a reportar.
func (s *session) abort(err error) error {
	_ = s.c.Reset()
	return err
}

// close manda QUIT; si falla, corta la conexión igual.
func (s *session) close() error {
	if err := s.c.Quit(); err != nil {
		_ = s.c.Close()
		return err
	}
	return nil
}
