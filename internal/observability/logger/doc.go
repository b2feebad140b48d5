// Package logger provides a singleton Zap logger with context-based scoping.
//
// # Design Decisions
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada request lleva su logger "scoped" (request_id, method, path)
//     inyectado por el middleware de logging; el dispatcher lo recupera con From(ctx).
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Secretos: la password SMTP nunca se pasa como campo. Usar Sender() para el remitente.
//
// # Usage
//
// Inicialización (una vez en cmd/emailrelay):
//
//	logger.Init(logger.Config{
//	    Env:   cfg.App.Env,
//	    Level: cfg.App.LogLevel,
//	})
//	defer logger.Sync()
//
// En controllers/dispatcher:
//
//	log := logger.From(ctx).With(logger.Op("Dispatch"))
//	log.Info("dispatch completed", logger.Count(len(recipients)))
package logger
