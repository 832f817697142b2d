package auth

import (
	"net/http"

	svc "github.com/dropDatabas3/keyrotor/internal/auth"
	"github.com/dropDatabas3/keyrotor/internal/http/dto"
	httperrors "github.com/dropDatabas3/keyrotor/internal/http/errors"
	"github.com/dropDatabas3/keyrotor/internal/http/helpers"
	mw "github.com/dropDatabas3/keyrotor/internal/http/middlewares"
)

// MeController sirve /me y /verify a partir del usuario resuelto por RequireAuth.
type MeController struct{}

// Me maneja GET /api/v1/auth/me
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	u := mw.GetUser(r.Context())
	if u == nil {
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewUserResponse(u))
}

// Verify maneja POST /api/v1/auth/verify. Los permisos salen del rol actual.
func (c *MeController) Verify(w http.ResponseWriter, r *http.Request) {
	u := mw.GetUser(r.Context())
	if u == nil {
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.VerifyResponse{
		UserID:      u.ID.String(),
		Role:        string(u.Role),
		Permissions: svc.PermissionsFor(u.Role),
	})
}
