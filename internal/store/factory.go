// Package store abre los repositorios según la configuración.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/keyrotor/internal/config"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
	"github.com/dropDatabas3/keyrotor/internal/store/core"
	"github.com/dropDatabas3/keyrotor/internal/store/memory"
	"github.com/dropDatabas3/keyrotor/internal/store/pg"
	redisstore "github.com/dropDatabas3/keyrotor/internal/store/redis"
	migrations "github.com/dropDatabas3/keyrotor/migrations/postgres"
	rdb "github.com/redis/go-redis/v9"
)

// Stores agrupa los repositorios abiertos y los recursos que hay que cerrar.
type Stores struct {
	Users         core.UserRepository
	RefreshTokens core.RefreshTokenRepository
	// Redis es el cliente compartido (nil si nada lo usa).
	Redis rdb.UniversalClient

	pingers map[string]core.Pinger
	closers []func() error
}

// Open construye los stores. Si algo falla a mitad, cierra lo ya abierto.
func Open(ctx context.Context, cfg *config.Config) (_ *Stores, err error) {
	s := &Stores{pingers: map[string]core.Pinger{}}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()
	log := logger.Named("store")

	if cfg.UsesRedis() {
		c := rdb.NewClient(&rdb.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		s.Redis = c
		s.pingers["redis"] = redisPinger{c}
		s.closers = append(s.closers, c.Close)
	}

	var pgs *pg.Store
	switch cfg.Storage.Driver {
	case "memory":
		s.Users = memory.NewUserStore()
	case "postgres":
		pgs, err = pg.New(ctx, cfg.Storage.DSN, pg.PoolConfig{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() error { pgs.Close(); return nil })
		s.pingers["postgres"] = pgs
		if cfg.Storage.Postgres.Migrate {
			if err = pgs.RunMigrations(ctx, migrations.FS); err != nil {
				return nil, fmt.Errorf("store: migrate: %w", err)
			}
		}
		s.Users = pgs.Users()
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Storage.Driver)
	}

	rtDriver := cfg.Storage.RefreshTokens
	if rtDriver == "" {
		rtDriver = cfg.Storage.Driver
	}
	switch rtDriver {
	case "memory":
		s.RefreshTokens = memory.NewRefreshTokenStore(0)
	case "postgres":
		if pgs == nil {
			return nil, errors.New("store: postgres refresh tokens require storage.driver=postgres")
		}
		s.RefreshTokens = pgs.RefreshTokens()
	case "redis":
		s.RefreshTokens = redisstore.NewRefreshTokenStore(s.Redis, cfg.Redis.Prefix)
	default:
		return nil, fmt.Errorf("store: unknown refresh token store %q", rtDriver)
	}

	log.Info("stores opened",
		logger.String("users", cfg.Storage.Driver),
		logger.String("refresh_tokens", rtDriver))
	return s, nil
}

// Ping verifica cada dependencia remota; el mapa queda vacío si todo está en memoria.
func (s *Stores) Ping(ctx context.Context) map[string]error {
	out := make(map[string]error, len(s.pingers))
	for name, p := range s.pingers {
		out[name] = p.Ping(ctx)
	}
	return out
}

func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}

type redisPinger struct{ c rdb.UniversalClient }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }
