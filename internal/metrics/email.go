package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas del relay. Viven en un paquete propio para que email y http
// las compartan sin ciclos de import.

var (
	EmailsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "emailrelay_emails_sent_total",
		Help: "Emails aceptados por el relay SMTP",
	})

	EmailsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emailrelay_emails_failed_total",
		Help: "Emails rechazados por destinatario, por código de diagnóstico",
	}, []string{"diag_code"})

	RelayConnectFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emailrelay_relay_connect_failures_total",
		Help: "Fallos al abrir la sesión SMTP (dial/STARTTLS/AUTH), por código de diagnóstico",
	}, []string{"diag_code"})

	DispatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "emailrelay_dispatch_duration_seconds",
		Help:    "Duración de un dispatch completo (sesión + loop de destinatarios)",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	DispatchRecipients = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "emailrelay_dispatch_recipients",
		Help:    "Cantidad de destinatarios por dispatch",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)
