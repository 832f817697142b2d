package middlewares

import (
	"context"

	"github.com/dropDatabas3/keyrotor/internal/auth"
	"github.com/dropDatabas3/keyrotor/internal/store/core"
)

type ctxKey string

const (
	ctxPrincipalKey ctxKey = "principal"
	ctxUserKey      ctxKey = "user"
	ctxRequestIDKey ctxKey = "request_id"
)

func withPrincipal(ctx context.Context, p auth.Principal, u *core.User) context.Context {
	ctx = context.WithValue(ctx, ctxPrincipalKey, p)
	return context.WithValue(ctx, ctxUserKey, u)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetPrincipal devuelve el principal autenticado (ok=false si RequireAuth no corrió).
func GetPrincipal(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(ctxPrincipalKey).(auth.Principal)
	return p, ok
}

// GetUser devuelve el usuario resuelto por RequireAuth.
func GetUser(ctx context.Context) *core.User {
	u, _ := ctx.Value(ctxUserKey).(*core.User)
	return u
}

func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxRequestIDKey).(string)
	return v
}
