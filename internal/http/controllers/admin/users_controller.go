package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/keyrotor/internal/audit"
	svc "github.com/dropDatabas3/keyrotor/internal/auth"
	"github.com/dropDatabas3/keyrotor/internal/http/dto"
	httperrors "github.com/dropDatabas3/keyrotor/internal/http/errors"
	"github.com/dropDatabas3/keyrotor/internal/http/helpers"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
)

type UsersController struct {
	service UsersService
}

func userIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, httperrors.ErrInvalidParameter.WithDetail("id debe ser un UUID")
	}
	return id, nil
}

// List maneja GET /api/v1/users?offset=&limit=
func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	offset, err := helpers.QueryInt(r, "offset", 0)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	limit, err := helpers.QueryInt(r, "limit", svc.DefaultPageLimit)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	page, err := c.service.ListUsers(r.Context(), offset, limit)
	if err != nil {
		helpers.WriteServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewUserListResponse(page))
}

// Get maneja GET /api/v1/users/{id}
func (c *UsersController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	u, err := c.service.GetUser(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewUserResponse(u))
}

// Create maneja POST /api/v1/users
func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	var in svc.CreateUserInput
	if err := helpers.ReadJSON(w, r, &in); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	u, err := c.service.CreateUser(r.Context(), in)
	if err != nil {
		helpers.WriteServiceError(w, r, err)
		return
	}
	audit.Log(r.Context(), audit.UserCreated, logger.String("target_user_id", u.ID.String()), logger.Role(string(u.Role)))
	w.Header().Set("Location", "/api/v1/users/"+u.ID.String())
	helpers.WriteJSON(w, http.StatusCreated, dto.NewUserResponse(u))
}

// Update maneja PATCH /api/v1/users/{id}
func (c *UsersController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	var in svc.UpdateUserInput
	if err := helpers.ReadJSON(w, r, &in); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	u, err := c.service.UpdateUser(r.Context(), id, in)
	if err != nil {
		helpers.WriteServiceError(w, r, err)
		return
	}
	audit.Log(r.Context(), audit.UserUpdated, logger.String("target_user_id", id.String()), logger.Bool("password_changed", in.Password != nil))
	helpers.WriteJSON(w, http.StatusOK, dto.NewUserResponse(u))
}

// Delete maneja DELETE /api/v1/users/{id}
func (c *UsersController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if err := c.service.DeleteUser(r.Context(), id); err != nil {
		helpers.WriteServiceError(w, r, err)
		return
	}
	audit.Log(r.Context(), audit.UserDeleted, logger.String("target_user_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
