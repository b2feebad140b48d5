package email

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/luiz-custodio/email-send/internal/metrics"
	"github.com/luiz-custodio/email-send/internal/observability/logger"
)

// Mensajes de estado del health check.
const (
	MsgConnectionOK       = "¡Conexión exitosa!"
	MsgMissingCredentials = "Credenciales no configuradas"
)

// Options configura el relay. Host/Port son configurables para poder apuntar a un relay de pruebas.
type Options struct {
	Host      string
	Port      int
	LocalName string        // EHLO; "" => "localhost"
	Timeout   time.Duration // dial y cada comando SMTP; 0 => default del transporte
	SendDelay time.Duration // pausa entre destinatarios

	// TLSConfig para STARTTLS. nil => verificación estándar contra Host.
	TLSConfig          *tls.Config
	InsecureSkipVerify bool // solo dev

	// Sleep implementa la pausa. nil => time.Sleep.
	Sleep func(time.Duration)
}

// Dispatcher envía un mensaje por destinatario sobre una única sesión SMTP por llamada.
// No guarda estado entre llamadas: es seguro usarlo desde varios requests a la vez.
type Dispatcher struct {
	opts Options
}

// New crea un Dispatcher con defaults aplicados.
func New(opts Options) *Dispatcher {
	if opts.LocalName == "" {
		opts.LocalName = "localhost"
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Dispatcher{opts: opts}
}

// Addr retorna host:port del relay.
func (d *Dispatcher) Addr() string {
	return net.JoinHostPort(d.opts.Host, strconv.Itoa(d.opts.Port))
}

// Dispatch abre una sesión, envía un mensaje a cada destinatario en orden y cierra la sesión.
//
// Un error de conexión/STARTTLS/AUTH retorna *ConnectError y ningún destinatario es intentado.
// Los fallos por destinatario nunca son error: quedan en Report.Failed y el loop sigue.
// Entre destinatarios se espera SendDelay (no después del último).
func (d *Dispatcher) Dispatch(ctx context.Context, req SendRequest, creds Credentials) (Report, error) {
	log := logger.From(ctx).With(
		logger.Component("email"),
		logger.Op("Dispatch"),
		logger.RelayAddr(d.Addr()),
	)

	if !creds.Valid() {
		return Report{}, ErrMissingCredentials
	}

	start := time.Now()
	s, err := d.open(ctx, creds)
	if err != nil {
		diag := DiagnoseSMTP(err)
		metrics.RelayConnectFailures.WithLabelValues(diag.Code).Inc()
		log.Error("relay connect failed", logger.Err(err), logger.DiagCode(diag.Code))
		return Report{}, err
	}
	defer func() {
		if err := s.close(); err != nil {
			log.Warn("relay session close failed", logger.Err(err))
		}
	}()

	report := Report{
		Successful: make([]string, 0, len(req.Recipients)),
		Failed:     make([]Failure, 0),
	}
	log.Debug("dispatch started", logger.Count(len(req.Recipients)), logger.Delay(d.opts.SendDelay))

	for i, rcpt := range req.Recipients {
		o := Outcome{Recipient: rcpt}
		o.Err = s.send(rcpt, buildMessage(creds.Address, rcpt, req))
		report.Record(o)

		if o.OK() {
			metrics.EmailsSent.Inc()
			log.Debug("email sent", logger.Recipient(rcpt))
		} else {
			diag := DiagnoseSMTP(o.Err)
			metrics.EmailsFailed.WithLabelValues(diag.Code).Inc()
			log.Warn("email send failed",
				logger.Recipient(rcpt),
				logger.Err(o.Err),
				logger.DiagCode(diag.Code),
				logger.Bool("temporary", diag.Temporary),
			)
		}

		if i < len(req.Recipients)-1 && d.opts.SendDelay > 0 {
			d.opts.Sleep(d.opts.SendDelay)
		}
	}

	metrics.DispatchRecipients.Observe(float64(len(req.Recipients)))
	metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	log.Info("dispatch completed",
		logger.Count(len(req.Recipients)),
		logger.Int("total_sent", report.TotalSent()),
		logger.Int("total_failed", report.TotalFailed()),
	)
	return report, nil
}

// CheckConnection abre y cierra una sesión sin enviar nada.
// Nunca retorna error: el resultado va en ConnectionStatus.
func (d *Dispatcher) CheckConnection(ctx context.Context, creds Credentials) ConnectionStatus {
	log := logger.From(ctx).With(
		logger.Component("email"),
		logger.Op("CheckConnection"),
		logger.RelayAddr(d.Addr()),
	)

	if !creds.Valid() {
		return ConnectionStatus{Message: MsgMissingCredentials}
	}

	s, err := d.open(ctx, creds)
	if err != nil {
		diag := DiagnoseSMTP(err)
		metrics.RelayConnectFailures.WithLabelValues(diag.Code).Inc()
		log.Warn("relay check failed", logger.Err(err), logger.DiagCode(diag.Code))
		return ConnectionStatus{Message: err.Error()}
	}
	if err := s.close(); err != nil {
		log.Warn("relay check quit failed", logger.Err(err))
		return ConnectionStatus{Message: err.Error()}
	}

	log.Info("relay check ok")
	return ConnectionStatus{OK: true, Message: MsgConnectionOK}
}
