// Package email relays individual messages through an authenticated SMTP relay.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                 HTTP controllers / CLI "check"                  │
//	└───────────────────────────┬─────────────────────────────────────┘
//	                            │
//	                            ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                         Dispatcher                              │
//	│  email.New(opts)                                                │
//	│    - Dispatch(ctx, req, creds)      -> Report | *ConnectError   │
//	│    - CheckConnection(ctx, creds)    -> ConnectionStatus         │
//	└───────────────────────────┬─────────────────────────────────────┘
//	                            │ una sesión por llamada
//	                            ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                          session                                │
//	│  dial -> EHLO -> STARTTLS -> AUTH -> (MAIL/RCPT/DATA)* -> QUIT  │
//	└─────────────────────────────────────────────────────────────────┘
//
// Los destinatarios se procesan en orden, de a uno, sobre la misma sesión.
// Un fallo de un destinatario se registra en el Report y no corta el loop;
// un fallo de conexión/TLS/auth corta todo antes de intentar destinatarios.
package email
