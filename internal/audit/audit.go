// Package audit registra las acciones administrativas en el logger "audit".
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
)

// Eventos administrativos.
const (
	KeyRotated   = "key.rotated"
	KeyRetired   = "key.retired"
	KeysReloaded = "keys.reloaded"
	KeysExported = "keys.exported"
	UserCreated  = "user.created"
	UserUpdated  = "user.updated"
	UserDeleted  = "user.deleted"
)

// Log escribe un evento de auditoría. El actor (user_id, request_id) llega en el
// logger del contexto puesto por los middlewares.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	l := logger.From(ctx).Named("audit")
	l.Info("audit event", append([]zap.Field{logger.String("event", event)}, fields...)...)
}
