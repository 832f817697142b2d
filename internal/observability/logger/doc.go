// Package logger provee el logger Zap del proceso con scoping por contexto.
//
// Init se llama una vez desde main; el resto del código usa L(), Named() o
// From(ctx). "dev" escribe consola con colores, "prod" escribe JSON.
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "keyrotor"})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Op("rotate"))
//	log.Info("signing key rotated", logger.KID(kid))
package logger
