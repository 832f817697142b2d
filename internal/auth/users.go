package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
	"github.com/dropDatabas3/keyrotor/internal/store/core"
	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type CreateUserInput struct {
	LastName       string      `json:"last_name"`
	FirstName      string      `json:"first_name"`
	MiddleName     *string     `json:"middle_name"`
	Login          string      `json:"login"`
	Password       string      `json:"password"`
	Role           core.Role   `json:"role"`
	Gender         core.Gender `json:"gender"`
	ClassName      *string     `json:"class_name"`
	GraduationYear *int        `json:"graduation_year"`
}

// UpdateUserInput: nil significa "no cambiar".
type UpdateUserInput struct {
	LastName       *string      `json:"last_name"`
	FirstName      *string      `json:"first_name"`
	MiddleName     *string      `json:"middle_name"`
	Login          *string      `json:"login"`
	Password       *string      `json:"password"`
	Role           *core.Role   `json:"role"`
	Gender         *core.Gender `json:"gender"`
	ClassName      *string      `json:"class_name"`
	GraduationYear *int         `json:"graduation_year"`
}

type UserPage struct {
	Items  []core.User `json:"items"`
	Total  int         `json:"total"`
	Offset int         `json:"offset"`
	Limit  int         `json:"limit"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (in *CreateUserInput) validate() error {
	in.Login = strings.TrimSpace(in.Login)
	in.LastName = strings.TrimSpace(in.LastName)
	in.FirstName = strings.TrimSpace(in.FirstName)
	if in.Login == "" || in.Password == "" || in.LastName == "" || in.FirstName == "" {
		return ErrMissingFields
	}
	if !in.Role.Valid() {
		return invalid("unknown role %q", in.Role)
	}
	if !in.Gender.Valid() {
		return invalid("unknown gender %q", in.Gender)
	}
	return nil
}

func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*core.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	u := &core.User{
		LastName:       in.LastName,
		FirstName:      in.FirstName,
		MiddleName:     in.MiddleName,
		Login:          in.Login,
		PasswordHash:   hash,
		Role:           in.Role,
		Gender:         in.Gender,
		ClassName:      in.ClassName,
		GraduationYear: in.GraduationYear,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return nil, ErrLoginTaken
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	logger.From(ctx).Info("user created", logger.UserID(u.ID.String()), logger.Login(u.Login), logger.Role(string(u.Role)))
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*core.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetUserByLogin devuelve ErrUserNotFound si no existe.
func (s *Service) GetUserByLogin(ctx context.Context, login string) (*core.User, error) {
	u, err := s.users.GetByLogin(ctx, login)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// ListUsers pagina por offset; limit 0 usa el default y fuera de [1,100] es inválido.
func (s *Service) ListUsers(ctx context.Context, offset, limit int) (*UserPage, error) {
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if offset < 0 {
		return nil, invalid("offset must be >= 0")
	}
	if limit < 1 || limit > MaxPageLimit {
		return nil, invalid("limit must be between 1 and %d", MaxPageLimit)
	}
	items, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("auth: list users: %w", err)
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: count users: %w", err)
	}
	return &UserPage{Items: items, Total: total, Offset: offset, Limit: limit}, nil
}

// UpdateUser aplica un patch parcial. Un cambio de password revoca las sesiones del usuario.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*core.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.MiddleName != nil {
		u.MiddleName = in.MiddleName
	}
	if in.Login != nil {
		u.Login = strings.TrimSpace(*in.Login)
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, invalid("unknown role %q", *in.Role)
		}
		u.Role = *in.Role
	}
	if in.Gender != nil {
		if !in.Gender.Valid() {
			return nil, invalid("unknown gender %q", *in.Gender)
		}
		u.Gender = *in.Gender
	}
	if in.ClassName != nil {
		u.ClassName = in.ClassName
	}
	if in.GraduationYear != nil {
		u.GraduationYear = in.GraduationYear
	}
	if u.Login == "" || u.LastName == "" || u.FirstName == "" {
		return nil, ErrMissingFields
	}
	if in.Password != nil {
		hash, err := s.HashPassword(*in.Password)
		if err != nil {
			return nil, invalid("password: %v", err)
		}
		u.PasswordHash = hash
	}

	if err := s.users.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, core.ErrConflict):
			return nil, ErrLoginTaken
		case errors.Is(err, core.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("auth: update user: %w", err)
	}
	if in.Password != nil {
		if _, err := s.LogoutAll(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// DeleteUser revoca sus refresh tokens y lo elimina.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.refresh.RevokeAllForUser(ctx, id); err != nil {
		return fmt.Errorf("auth: revoke tokens: %w", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("auth: delete user: %w", err)
	}
	logger.From(ctx).Info("user deleted", logger.UserID(id.String()))
	return nil
}
