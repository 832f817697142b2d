package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository persiste usuarios. Login es único (ErrConflict).
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	// Create completa ID (si es cero), CreatedAt y UpdatedAt.
	Create(ctx context.Context, u *User) error
	// Update reemplaza todos los campos editables y refresca UpdatedAt.
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List ordena por CreatedAt descendente.
	List(ctx context.Context, offset, limit int) ([]User, error)
	Count(ctx context.Context) (int, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*RefreshToken, error)
	// GetActive devuelve ErrNotFound si no existe, está revocado o expiró.
	GetActive(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// Revoke devuelve false si el token no existía o ya estaba revocado.
	Revoke(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// Pinger lo implementan los stores con conexión remota.
type Pinger interface {
	Ping(ctx context.Context) error
}
