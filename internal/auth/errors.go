package auth

import "errors"

var (
	// ErrInvalidCredentials cubre login fallido y cualquier access token inválido.
	// El motivo concreto queda en la cadena (errors.Is) pero no se expone al cliente.
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrMissingFields       = errors.New("missing required fields")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUserNotFound        = errors.New("user not found")
	ErrLoginTaken          = errors.New("login already exists")
	ErrTokenIssueFailed    = errors.New("failed to issue token")
)
