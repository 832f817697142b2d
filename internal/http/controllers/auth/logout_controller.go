package auth

import (
	"net/http"

	"github.com/dropDatabas3/keyrotor/internal/http/dto"
	httperrors "github.com/dropDatabas3/keyrotor/internal/http/errors"
	"github.com/dropDatabas3/keyrotor/internal/http/helpers"
	mw "github.com/dropDatabas3/keyrotor/internal/http/middlewares"
)

type LogoutController struct {
	service Service
}

// Logout maneja POST /api/v1/auth/logout (requiere bearer).
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := mw.GetPrincipal(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		return
	}
	var req dto.LogoutRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	revoked, err := c.service.Logout(r.Context(), p, req.RefreshToken)
	if err != nil {
		helpers.WriteServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.LogoutResponse{OK: true, Revoked: revoked})
}

// LogoutAll maneja POST /api/v1/auth/logout-all: revoca todas las sesiones del usuario.
func (c *LogoutController) LogoutAll(w http.ResponseWriter, r *http.Request) {
	p, ok := mw.GetPrincipal(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		return
	}
	n, err := c.service.LogoutAll(r.Context(), p.UserID)
	if err != nil {
		helpers.WriteServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.LogoutAllResponse{OK: true, Revoked: n})
}
