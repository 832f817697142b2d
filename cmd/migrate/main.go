package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/keyrotor/internal/config"
	"github.com/dropDatabas3/keyrotor/internal/store/pg"
	migrations "github.com/dropDatabas3/keyrotor/migrations/postgres"
)

func main() {
	var (
		configPath = flag.String("config", "", "ruta a config.yaml (opcional)")
		envFile    = flag.String("env-file", ".env", "ruta a .env (se ignora si no existe)")
		dir        = flag.String("dir", "", "directorio de migraciones; vacío usa las embebidas")
	)
	flag.Parse()

	action := "up"
	if args := flag.Args(); len(args) >= 1 && args[0] != "" {
		action = strings.ToLower(args[0])
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("env file %s: %v", *envFile, err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if cfg.Storage.DSN == "" {
		log.Fatal("storage.dsn (STORAGE_DSN) is required")
	}

	var src fs.FS = migrations.FS
	if *dir != "" {
		src = os.DirFS(*dir)
	}

	ctx := context.Background()
	st, err := pg.New(ctx, cfg.Storage.DSN, pg.PoolConfig{MaxOpenConns: 2})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer st.Close()

	switch action {
	case "up":
		err = st.RunMigrations(ctx, src)
	case "down":
		err = st.RunMigrationsDown(ctx, src)
	default:
		log.Fatalf("unknown action %q. Use: up | down", action)
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", action, err)
	}
	log.Printf("migrations %s completed", action)
}
