package auth

import (
	"net/http"

	"github.com/dropDatabas3/keyrotor/internal/http/dto"
	httperrors "github.com/dropDatabas3/keyrotor/internal/http/errors"
	"github.com/dropDatabas3/keyrotor/internal/http/helpers"
)

type RefreshController struct {
	service Service
}

// Refresh maneja POST /api/v1/auth/refresh
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	pair, err := c.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		helpers.WriteServiceError(w, r, err)
		return
	}
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, pair)
}
