package keys

import (
	"net/http"

	"github.com/dropDatabas3/keyrotor/internal/http/helpers"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
)

type JWKSController struct {
	service Service
}

// GetJWKS maneja GET/HEAD /.well-known/jwks.json
// Una clave con material inválido se omite; el resto del documento se sirve igual.
func (c *JWKSController) GetJWKS(w http.ResponseWriter, r *http.Request) {
	doc, err := c.service.JWKS()
	if err != nil {
		logger.From(r.Context()).Error("jwks contains invalid keys",
			logger.Layer("controller"), logger.Op("JWKSController.GetJWKS"), logger.Err(err))
	}
	helpers.NoStore(w)
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, doc)
}
