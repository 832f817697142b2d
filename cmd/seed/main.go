package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/keyrotor/internal/auth"
	"github.com/dropDatabas3/keyrotor/internal/bootstrap"
	"github.com/dropDatabas3/keyrotor/internal/config"
	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
	"github.com/dropDatabas3/keyrotor/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "ruta a config.yaml (opcional)")
		envFile    = flag.String("env-file", ".env", "ruta a .env (se ignora si no existe)")
		seedPath   = flag.String("file", "seed.yaml", "YAML con `users: [...]`")
	)
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("env file %s: %v", *envFile, err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Storage.Driver == "memory" {
		log.Fatal("seed needs a persistent storage driver (STORAGE_DRIVER=postgres)")
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "seed"})
	defer func() { _ = logger.Sync() }()

	users, err := bootstrap.LoadSeedFile(*seedPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	stores, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer stores.Close()

	// el seed no emite tokens; el manager solo completa el servicio
	backend := jwtx.NewEnvKeyStore(cfg.Keys.EnvPrefix)
	keys, err := jwtx.NewManager(ctx, backend)
	if err != nil {
		log.Fatalf("keys: %v", err)
	}
	svc := auth.NewService(stores.Users, stores.RefreshTokens, jwtx.NewIssuer(keys), auth.Config{})

	n, err := bootstrap.SeedUsers(ctx, svc, users)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seed: %d/%d users created", n, len(users))
}
