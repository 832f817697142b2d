// Package health contiene liveness y readiness.
package health

import (
	"context"
	"net/http"
	"sort"

	"github.com/dropDatabas3/keyrotor/internal/http/helpers"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
)

// Checker agrega los pings de los stores.
type Checker interface {
	Ping(ctx context.Context) map[string]error
}

// KeyState informa si hay una clave activa para firmar.
type KeyState interface {
	ActiveKID() string
}

type HealthController struct {
	checker Checker
	keys    KeyState
}

func NewHealthController(checker Checker, keys KeyState) *HealthController {
	return &HealthController{checker: checker, keys: keys}
}

type readyResponse struct {
	Status    string            `json:"status"`
	ActiveKID string            `json:"active_kid,omitempty"`
	Checks    map[string]string `json:"checks"`
}

// Health maneja GET /health
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready maneja GET /ready: 503 si un store no responde o no hay clave activa.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{Status: "ok", Checks: map[string]string{}}
	var failed []string
	if c.checker != nil {
		for name, err := range c.checker.Ping(r.Context()) {
			if err != nil {
				resp.Checks[name] = err.Error()
				failed = append(failed, name)
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	if c.keys != nil {
		resp.ActiveKID = c.keys.ActiveKID()
		if resp.ActiveKID == "" {
			resp.Checks["signing_key"] = "no active key"
			failed = append(failed, "signing_key")
		} else {
			resp.Checks["signing_key"] = "ok"
		}
	}
	status := http.StatusOK
	if len(failed) > 0 {
		sort.Strings(failed)
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
		logger.From(r.Context()).Warn("readiness check failed", logger.Any("failed", failed))
	}
	helpers.WriteJSON(w, status, resp)
}
