package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dropDatabas3/keyrotor/internal/auth"
	"github.com/dropDatabas3/keyrotor/internal/bootstrap"
	"github.com/dropDatabas3/keyrotor/internal/config"
	"github.com/dropDatabas3/keyrotor/internal/http/router"
	"github.com/dropDatabas3/keyrotor/internal/http/server"
	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
	"github.com/dropDatabas3/keyrotor/internal/metrics"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
	"github.com/dropDatabas3/keyrotor/internal/rate"
	"github.com/dropDatabas3/keyrotor/internal/store"
)

func main() {
	var (
		flagConfig  = flag.String("config", "", "ruta a config.yaml (opcional)")
		flagEnvFile = flag.String("env-file", ".env", "ruta a .env (se ignora si no existe)")
	)
	flag.Parse()

	if err := godotenv.Load(*flagEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("env file %s: %v", *flagEnvFile, err)
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: cfg.App.Name})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.L().Error("service stopped with error", logger.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.L().Info("service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Named("service")

	stores, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Warn("store close", logger.Err(err))
		}
	}()

	backend, err := bootstrap.OpenKeyBackend(cfg)
	if err != nil {
		return err
	}
	keys, err := jwtx.NewManager(ctx, backend, jwtx.WithEnvPrefix(cfg.Keys.EnvPrefix))
	if err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	if err := bootstrap.EnsureSigningKey(ctx, keys, cfg.Keys.BootstrapKID, cfg.Keys.EnvPrefix); err != nil {
		return fmt.Errorf("bootstrap key: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := m.Register(metrics.NewKeySetCollector(keys)); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	issuer := jwtx.NewIssuer(keys, jwtx.WithLeeway(cfg.Keys.ClockSkew))
	svc := auth.NewService(stores.Users, stores.RefreshTokens, issuer, auth.Config{
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Issuer:     cfg.JWT.Issuer,
	}, auth.WithMetrics(m))

	if cfg.Admin.Seed {
		if _, err := bootstrap.EnsureAdmin(ctx, svc, bootstrap.AdminBootstrapConfig{
			Login:    cfg.Admin.Login,
			Password: cfg.Admin.Password,
			Prod:     cfg.IsProd(),
		}); err != nil {
			return err
		}
	}

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		switch cfg.Rate.Backend {
		case "redis":
			limiter = rate.NewRedisLimiter(stores.Redis, cfg.Redis.Prefix+"rl:", cfg.Rate.Login.Limit, cfg.Rate.Login.Window)
		default:
			limiter = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, cfg.Rate.Login.Window)
		}
	}

	go reloadOnHangup(ctx, svc)
	if keys.Backend() == jwtx.SourceFilesystem && cfg.Keys.Watch {
		go func() {
			if err := jwtx.WatchDir(ctx, keys, cfg.Keys.Dir, 0); err != nil {
				log.Warn("key directory watch disabled", logger.Err(err))
			}
		}()
	}

	log.Info("service ready",
		logger.String("addr", cfg.Server.Addr),
		logger.Backend(string(keys.Backend())),
		logger.ActiveKID(keys.ActiveKID()),
		logger.String("storage", cfg.Storage.Driver),
		logger.String("refresh_store", cfg.Storage.RefreshTokens))

	handler := router.New(router.Deps{
		Auth:         svc,
		Checker:      stores,
		Metrics:      m,
		LoginLimiter: limiter,
		Logger:       logger.L(),
	})
	return server.Start(ctx, server.ServerConfig{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, handler)
}

// reloadOnHangup relee las claves con SIGHUP, p.ej. después de `keys rotate` sobre el mismo directorio.
func reloadOnHangup(ctx context.Context, svc *auth.Service) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)
	defer signal.Stop(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			if err := svc.ReloadKeys(ctx); err != nil {
				logger.L().Error("key reload failed", logger.Err(err))
				continue
			}
			logger.L().Info("keys reloaded", logger.ActiveKID(svc.ActiveKID()))
		}
	}
}
