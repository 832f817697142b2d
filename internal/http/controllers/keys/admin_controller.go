package keys

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/keyrotor/internal/audit"
	"github.com/dropDatabas3/keyrotor/internal/http/dto"
	httperrors "github.com/dropDatabas3/keyrotor/internal/http/errors"
	"github.com/dropDatabas3/keyrotor/internal/http/helpers"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
)

type AdminKeysController struct {
	service Service
}

// List maneja GET /api/v1/admin/keys
func (c *AdminKeysController) List(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, dto.KeyListResponse{
		Backend:   c.service.KeyBackend(),
		ActiveKID: c.service.ActiveKID(),
		Keys:      c.service.ListKeys(),
	})
}

// Rotate maneja POST /api/v1/admin/keys/rotate {kid?}
// En backend environment la respuesta trae las variables a exportar.
func (c *AdminKeysController) Rotate(w http.ResponseWriter, r *http.Request) {
	var req dto.RotateRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	rot, err := c.service.RotateKeys(r.Context(), strings.TrimSpace(req.KID))
	if err != nil {
		helpers.WriteServiceError(w, r, err)
		return
	}
	audit.Log(r.Context(), audit.KeyRotated, logger.KID(rot.KID), logger.Bool("activated", rot.Activated))
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, rot)
}

// Retire maneja POST /api/v1/admin/keys/{kid}/retire
func (c *AdminKeysController) Retire(w http.ResponseWriter, r *http.Request) {
	kid := chi.URLParam(r, "kid")
	if err := c.service.RetireKey(r.Context(), kid); err != nil {
		helpers.WriteServiceError(w, r, err)
		return
	}
	audit.Log(r.Context(), audit.KeyRetired, logger.KID(kid))
	helpers.WriteJSON(w, http.StatusOK, dto.StatusResponse{Status: "retired"})
}

// Reload maneja POST /api/v1/admin/keys/reload
func (c *AdminKeysController) Reload(w http.ResponseWriter, r *http.Request) {
	if err := c.service.ReloadKeys(r.Context()); err != nil {
		helpers.WriteServiceError(w, r, err)
		return
	}
	audit.Log(r.Context(), audit.KeysReloaded, logger.ActiveKID(c.service.ActiveKID()))
	helpers.WriteJSON(w, http.StatusOK, dto.StatusResponse{Status: "reloaded"})
}

// Export maneja GET /api/v1/admin/keys/export?kid=
// Devuelve material privado: nunca cacheable.
func (c *AdminKeysController) Export(w http.ResponseWriter, r *http.Request) {
	kid := strings.TrimSpace(r.URL.Query().Get("kid"))
	vars, err := c.service.ExportKeys(kid)
	if err != nil {
		helpers.WriteServiceError(w, r, err)
		return
	}
	audit.Log(r.Context(), audit.KeysExported, logger.KID(kid), logger.Count(len(vars)))
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, dto.ExportResponse{Vars: vars})
}
