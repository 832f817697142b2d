package helpers

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/keyrotor/internal/auth"
	httperrors "github.com/dropDatabas3/keyrotor/internal/http/errors"
	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
)

// ServiceError traduce errores de auth/jwt a AppError.
func ServiceError(err error) *httperrors.AppError {
	var appErr *httperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, auth.ErrInvalidCredentials):
		return httperrors.ErrInvalidCredentials.WithCause(err)
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		return httperrors.ErrInvalidRefresh.WithCause(err)
	case errors.Is(err, auth.ErrMissingFields):
		return httperrors.ErrMissingFields.WithCause(err)
	case errors.Is(err, auth.ErrInvalidInput):
		return httperrors.ErrBadRequest.WithDetail(err.Error())
	case errors.Is(err, auth.ErrLoginTaken):
		return httperrors.ErrLoginTaken.WithCause(err)
	case errors.Is(err, auth.ErrUserNotFound):
		return httperrors.ErrUserNotFound.WithCause(err)
	case errors.Is(err, jwtx.ErrUnknownKey):
		return httperrors.ErrKeyNotFound.WithDetail(err.Error())
	case errors.Is(err, jwtx.ErrInvalidKID):
		return httperrors.ErrInvalidParameter.WithDetail(err.Error())
	case errors.Is(err, jwtx.ErrKIDExists):
		return httperrors.ErrConflict.WithDetail(err.Error())
	case errors.Is(err, jwtx.ErrNoActiveKey), errors.Is(err, jwtx.ErrPrivateKeyUnavailable):
		return httperrors.ErrNoActiveKey.WithCause(err)
	}
	return httperrors.ErrInternalServerError.WithCause(err)
}

// WriteServiceError escribe el error y loguea los 5xx con su causa.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := ServiceError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("request failed", logger.Status(appErr.HTTPStatus), logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}
