// Package logger provides a singleton Zap logger with context-based scoping.
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada operación puede llevar su propio logger "scoped"
//     con campos adicionales (client_id, subject, etc.) sin crear un core nuevo.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//
// Inicialización (una vez, en el arranque del host):
//
//	logger.Init(logger.Config{Env: "prod", Level: "info"})
//	defer logger.Sync()
//
// En services (con contexto):
//
//	log := logger.From(ctx)
//	log.Info("decision", logger.ClientID(clientID), logger.Decision(ok))
package logger
