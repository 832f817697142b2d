package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError es el error estándar de la capa HTTP.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	// Err es la causa; va a logs, nunca al cliente.
	Err error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// FromError convierte un error genérico en AppError (500 si no lo es).
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail devuelve una COPIA con detalle; no muta las variables base.
func (e *AppError) WithDetail(detail string) *AppError {
	c := *e
	c.Detail = detail
	return &c
}

// WithCause devuelve una COPIA con la causa.
func (e *AppError) WithCause(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

// =================================================================================
// ERRORES PREDEFINIDOS
// =================================================================================

var (
	ErrBadRequest       = New(http.StatusBadRequest, "BAD_REQUEST", "La solicitud contiene sintaxis inválida o parámetros faltantes.")
	ErrInvalidJSON      = New(http.StatusBadRequest, "INVALID_JSON", "El cuerpo de la solicitud no es un JSON válido.")
	ErrMissingFields    = New(http.StatusBadRequest, "MISSING_FIELDS", "Faltan campos requeridos en la solicitud.")
	ErrInvalidParameter = New(http.StatusBadRequest, "INVALID_PARAMETER", "Uno de los parámetros de la URL o Query String es inválido.")
	ErrLoginTaken       = New(http.StatusBadRequest, "LOGIN_TAKEN", "El login ya está en uso.")
	ErrBodyTooLarge     = New(http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "El cuerpo de la solicitud excede el tamaño máximo permitido.")
)

var (
	// ErrInvalidCredentials es la única respuesta para login fallido o token inválido.
	ErrInvalidCredentials = New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Las credenciales proporcionadas son inválidas.")
	ErrInvalidRefresh     = New(http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "El refresh token es inválido o expiró.")
	ErrTokenMissing       = New(http.StatusUnauthorized, "TOKEN_MISSING", "No se proporcionó token de autenticación.")
)

var (
	ErrForbidden = New(http.StatusForbidden, "FORBIDDEN", "No tiene permisos para realizar esta acción.")
)

var (
	ErrNotFound      = New(http.StatusNotFound, "NOT_FOUND", "El recurso solicitado no fue encontrado.")
	ErrUserNotFound  = New(http.StatusNotFound, "USER_NOT_FOUND", "El usuario especificado no existe.")
	ErrKeyNotFound   = New(http.StatusNotFound, "KEY_NOT_FOUND", "La clave especificada no existe.")
	ErrRouteNotFound = New(http.StatusNotFound, "ROUTE_NOT_FOUND", "La ruta solicitada no existe.")
)

var (
	ErrMethodNotAllowed  = New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "El método HTTP no está permitido para este recurso.")
	ErrConflict          = New(http.StatusConflict, "CONFLICT", "La solicitud entra en conflicto con el estado actual del servidor.")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Ha excedido el límite de solicitudes. Intente más tarde.")
)

var (
	ErrInternalServerError = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Ocurrió un error interno en el servidor.")
	ErrServiceUnavailable  = New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "El servicio no está disponible temporalmente.")
	ErrNoActiveKey         = New(http.StatusServiceUnavailable, "NO_ACTIVE_KEY", "No hay una clave de firma activa.")
)
