package auth

import (
	"net/http"

	"github.com/dropDatabas3/keyrotor/internal/http/dto"
	httperrors "github.com/dropDatabas3/keyrotor/internal/http/errors"
	"github.com/dropDatabas3/keyrotor/internal/http/helpers"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
)

type LoginController struct {
	service Service
}

// Login maneja POST /api/v1/auth/login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req dto.LoginRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	pair, err := c.service.Login(ctx, req.Login, req.Password)
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		helpers.WriteServiceError(w, r, err)
		return
	}
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, pair)
}
