// Package logger provides a singleton Zap logger with context-based scoping.
//
// # Design Decisions
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada request lleva un logger "scoped" con request_id y,
//     dentro del gate, payment_attempt_id. No se crea un core nuevo por request.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - PII: los números de teléfono se loguean siempre con Phone(), que enmascara.
//
// # Usage
//
//	logger.Init(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx)
//	log.Info("sim swap checked", logger.Phone(phone), logger.Tier("high"))
package logger
