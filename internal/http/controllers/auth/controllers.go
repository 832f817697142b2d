// Package auth contiene los controllers de /api/v1/auth.
package auth

import (
	"context"

	svc "github.com/dropDatabas3/keyrotor/internal/auth"
	"github.com/google/uuid"
)

// Service es lo que los controllers necesitan del servicio de credenciales.
type Service interface {
	Login(ctx context.Context, login, password string) (*svc.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*svc.TokenPair, error)
	Logout(ctx context.Context, p svc.Principal, refreshToken string) (bool, error)
	LogoutAll(ctx context.Context, userID uuid.UUID) (int, error)
}

// Controllers agrupa los controllers del dominio auth.
type Controllers struct {
	Login   *LoginController
	Refresh *RefreshController
	Logout  *LogoutController
	Me      *MeController
}

func NewControllers(s Service) *Controllers {
	return &Controllers{
		Login:   &LoginController{service: s},
		Refresh: &RefreshController{service: s},
		Logout:  &LogoutController{service: s},
		Me:      &MeController{},
	}
}
