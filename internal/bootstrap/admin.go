// Package bootstrap prepara el estado mínimo para servir: un admin y una clave de firma.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/keyrotor/internal/auth"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
	"github.com/dropDatabas3/keyrotor/internal/security/password"
	"github.com/dropDatabas3/keyrotor/internal/store/core"
)

// AdminService es lo que EnsureAdmin necesita del servicio de credenciales.
type AdminService interface {
	GetUserByLogin(ctx context.Context, login string) (*core.User, error)
	CreateUser(ctx context.Context, in auth.CreateUserInput) (*core.User, error)
}

// AdminBootstrapConfig describe el admin sembrado.
type AdminBootstrapConfig struct {
	Login    string
	Password string
	// Prod exige password.Strict.
	Prod bool
}

// EnsureAdmin crea el admin si el login no existe. Devuelve true si lo creó.
func EnsureAdmin(ctx context.Context, svc AdminService, cfg AdminBootstrapConfig) (bool, error) {
	log := logger.From(ctx).With(logger.Component("bootstrap"), logger.Op("EnsureAdmin"))
	login := strings.TrimSpace(cfg.Login)
	if login == "" || cfg.Password == "" {
		return false, fmt.Errorf("bootstrap: admin login and password are required")
	}

	existing, err := svc.GetUserByLogin(ctx, login)
	switch {
	case err == nil:
		if existing.Role != core.RoleAdmin {
			log.Warn("bootstrap admin login exists with a non-admin role", logger.Login(login), logger.Role(string(existing.Role)))
		}
		return false, nil
	case !errors.Is(err, auth.ErrUserNotFound):
		return false, fmt.Errorf("bootstrap: lookup admin: %w", err)
	}

	if cfg.Prod {
		if reasons := password.Strict.Check(cfg.Password); len(reasons) > 0 {
			return false, fmt.Errorf("bootstrap: admin password rejected in prod: %s", strings.Join(reasons, ","))
		}
	}

	u, err := svc.CreateUser(ctx, auth.CreateUserInput{
		LastName:  "Administrator",
		FirstName: "System",
		Login:     login,
		Password:  cfg.Password,
		Role:      core.RoleAdmin,
		Gender:    core.GenderMale,
	})
	if errors.Is(err, auth.ErrLoginTaken) {
		// otra instancia lo creó en paralelo
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("bootstrap: create admin: %w", err)
	}
	log.Info("admin user created", logger.UserID(u.ID.String()), logger.Login(login))
	return true, nil
}
