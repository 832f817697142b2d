// Package admin contiene el CRUD de usuarios (rol admin).
package admin

import (
	"context"

	svc "github.com/dropDatabas3/keyrotor/internal/auth"
	"github.com/dropDatabas3/keyrotor/internal/store/core"
	"github.com/google/uuid"
)

type UsersService interface {
	ListUsers(ctx context.Context, offset, limit int) (*svc.UserPage, error)
	GetUser(ctx context.Context, id uuid.UUID) (*core.User, error)
	CreateUser(ctx context.Context, in svc.CreateUserInput) (*core.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, in svc.UpdateUserInput) (*core.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type Controllers struct {
	Users *UsersController
}

func NewControllers(s UsersService) *Controllers {
	return &Controllers{Users: &UsersController{service: s}}
}
