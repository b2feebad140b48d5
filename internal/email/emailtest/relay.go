// Package emailtest provides an in-process SMTP relay for tests.
//
// El relay exige STARTTLS antes de AUTH (igual que Outlook), acepta un único
// usuario y permite inyectar rechazos por destinatario en RCPT o en DATA.
package emailtest

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	netmail "net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/require"
)

// Config del relay de pruebas.
type Config struct {
	Username string
	Password string

	// DisableStartTLS hace que el relay no anuncie STARTTLS (y por lo tanto tampoco AUTH).
	DisableStartTLS bool
	// LoginOnly anuncia sólo AUTH LOGIN, como smtp-mail.outlook.com.
	LoginOnly bool
}

// Delivery es un mensaje aceptado por el relay.
type Delivery struct {
	From string
	To   []string
	Data []byte
}

// Message parsea Data como RFC 5322.
func (d Delivery) Message() (*netmail.Message, error) {
	return netmail.ReadMessage(bytes.NewReader(d.Data))
}

// Relay es un servidor SMTP en 127.0.0.1 con puerto efímero.
type Relay struct {
	cfg  Config
	srv  *smtp.Server
	ln   net.Listener
	pool *x509.CertPool

	mu          sync.Mutex
	deliveries  []Delivery
	rcptRejects map[string]*smtp.SMTPError
	dataRejects map[string]*smtp.SMTPError
	drops       map[string]bool
	conns       map[*smtp.Conn]struct{}
	tlsHellos   []string
	mailCmds    int
}

// Start levanta el relay y registra su cierre en t.Cleanup.
func Start(t testing.TB, cfg Config) *Relay {
	t.Helper()

	cert, pool, err := selfSignedCert()
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	r := &Relay{
		cfg:         cfg,
		ln:          ln,
		pool:        pool,
		rcptRejects: map[string]*smtp.SMTPError{},
		dataRejects: map[string]*smtp.SMTPError{},
		drops:       map[string]bool{},
		conns:       map[*smtp.Conn]struct{}{},
	}

	s := smtp.NewServer(r)
	s.Domain = "localhost"
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 10 * time.Second
	s.AllowInsecureAuth = false
	if !cfg.DisableStartTLS {
		s.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}
	r.srv = s

	go func() { _ = s.Serve(ln) }()
	t.Cleanup(func() { _ = r.srv.Close() })
	return r
}

// Host retorna la IP de escucha.
func (r *Relay) Host() string {
	return r.ln.Addr().(*net.TCPAddr).IP.String()
}

// Port retorna el puerto efímero asignado.
func (r *Relay) Port() int {
	return r.ln.Addr().(*net.TCPAddr).Port
}

// ClientTLSConfig confía en el certificado autofirmado del relay.
func (r *Relay) ClientTLSConfig() *tls.Config {
	return &tls.Config{RootCAs: r.pool, MinVersion: tls.VersionTLS12}
}

// RejectRecipient hace que RCPT TO:<addr> falle con err.
func (r *Relay) RejectRecipient(addr string, err *smtp.SMTPError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rcptRejects[strings.ToLower(addr)] = err
}

// RejectData acepta RCPT TO:<addr> pero rechaza el DATA con err.
func (r *Relay) RejectData(addr string, err *smtp.SMTPError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dataRejects[strings.ToLower(addr)] = err
}

// DropOnRecipient corta la conexión TCP al recibir RCPT TO:<addr>, sin responder.
func (r *Relay) DropOnRecipient(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drops[strings.ToLower(addr)] = true
}

// Deliveries retorna una copia de los mensajes aceptados, en orden.
func (r *Relay) Deliveries() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Delivery, len(r.deliveries))
	copy(out, r.deliveries)
	return out
}

// Connections cuenta las sesiones TCP abiertas contra el relay.
func (r *Relay) Connections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// MailCommands cuenta los MAIL FROM recibidos (intentos de envío).
func (r *Relay) MailCommands() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mailCmds
}

// TLSHellos retorna los nombres recibidos en EHLO ya dentro de TLS, en orden.
func (r *Relay) TLSHellos() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tlsHellos...)
}

// NewSession implementa smtp.Backend. go-smtp puede pedir una sesión por EHLO,
// así que las conexiones se cuentan por *smtp.Conn.
func (r *Relay) NewSession(c *smtp.Conn) (smtp.Session, error) {
	r.mu.Lock()
	r.conns[c] = struct{}{}
	if _, ok := c.TLSConnectionState(); ok {
		r.tlsHellos = append(r.tlsHellos, c.Hostname())
	}
	r.mu.Unlock()
	return &session{relay: r, conn: c}, nil
}

// ─── Session ───

var (
	errAuthRequired = &smtp.SMTPError{Code: 530, EnhancedCode: smtp.EnhancedCode{5, 7, 0}, Message: "Authentication required"}
	errAuthFailed   = &smtp.SMTPError{Code: 535, EnhancedCode: smtp.EnhancedCode{5, 7, 8}, Message: "Authentication unsuccessful"}
	errUnknownMech  = &smtp.SMTPError{Code: 504, EnhancedCode: smtp.EnhancedCode{5, 7, 4}, Message: "Unrecognized authentication type"}
	errDropped      = &smtp.SMTPError{Code: 421, EnhancedCode: smtp.EnhancedCode{4, 4, 2}, Message: "Connection dropped"}
)

type session struct {
	relay  *Relay
	conn   *smtp.Conn
	authed bool
	from   string
	to     []string
}

func (s *session) AuthMechanisms() []string {
	if s.relay.cfg.LoginOnly {
		return []string{sasl.Login}
	}
	return []string{sasl.Plain, sasl.Login}
}

func (s *session) Auth(mech string) (sasl.Server, error) {
	check := func(username, password string) error {
		if username != s.relay.cfg.Username || password != s.relay.cfg.Password {
			return errAuthFailed
		}
		s.authed = true
		return nil
	}
	switch mech {
	case sasl.Plain:
		return sasl.NewPlainServer(func(_, username, password string) error {
			return check(username, password)
		}), nil
	case sasl.Login:
		return sasl.NewLoginServer(check), nil
	}
	return nil, errUnknownMech
}

func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	if !s.authed {
		return errAuthRequired
	}
	s.relay.mu.Lock()
	s.relay.mailCmds++
	s.relay.mu.Unlock()
	s.from = from
	return nil
}

func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.relay.mu.Lock()
	rej := s.relay.rcptRejects[strings.ToLower(to)]
	drop := s.relay.drops[strings.ToLower(to)]
	s.relay.mu.Unlock()
	if drop {
		// net.Conn directo: smtp.Conn.Close toma un lock del propio handler.
		_ = s.conn.Conn().Close()
		return errDropped
	}
	if rej != nil {
		return rej
	}
	s.to = append(s.to, to)
	return nil
}

func (s *session) Data(rd io.Reader) error {
	b, err := io.ReadAll(rd)
	if err != nil {
		return err
	}

	s.relay.mu.Lock()
	defer s.relay.mu.Unlock()
	for _, to := range s.to {
		if rej := s.relay.dataRejects[strings.ToLower(to)]; rej != nil {
			return rej
		}
	}
	s.relay.deliveries = append(s.relay.deliveries, Delivery{
		From: s.from,
		To:   append([]string(nil), s.to...),
		Data: b,
	})
	return nil
}

func (s *session) Reset() {
	s.from = ""
	s.to = nil
}

func (s *session) Logout() error { return nil }

// ─── Certificado ───

func selfSignedCert() (tls.Certificate, *x509.CertPool, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, nil, err
	}
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return tls.Certificate{}, nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "emailtest relay"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.IPv6loopback},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, nil, err
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return tls.Certificate{}, nil, err
	}
	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, pool, nil
}
