// Package dto define los cuerpos de request/response del API.
package dto

import (
	"time"

	"github.com/dropDatabas3/keyrotor/internal/store/core"
	"github.com/google/uuid"
)

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutResponse struct {
	OK      bool `json:"ok"`
	Revoked bool `json:"revoked"`
}

type LogoutAllResponse struct {
	OK      bool `json:"ok"`
	Revoked int  `json:"revoked"`
}

type VerifyResponse struct {
	UserID      string   `json:"user_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type UserResponse struct {
	ID             uuid.UUID   `json:"id"`
	LastName       string      `json:"last_name"`
	FirstName      string      `json:"first_name"`
	MiddleName     *string     `json:"middle_name"`
	Role           core.Role   `json:"role"`
	Gender         core.Gender `json:"gender"`
	ClassName      *string     `json:"class_name"`
	GraduationYear *int        `json:"graduation_year"`
	Login          string      `json:"login"`
	CreatedAt      *time.Time  `json:"created_at"`
	UpdatedAt      *time.Time  `json:"updated_at"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// NewUserResponse nunca incluye el hash del password.
func NewUserResponse(u *core.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		LastName:       u.LastName,
		FirstName:      u.FirstName,
		MiddleName:     u.MiddleName,
		Role:           u.Role,
		Gender:         u.Gender,
		ClassName:      u.ClassName,
		GraduationYear: u.GraduationYear,
		Login:          u.Login,
		CreatedAt:      timePtr(u.CreatedAt),
		UpdatedAt:      timePtr(u.UpdatedAt),
	}
}
