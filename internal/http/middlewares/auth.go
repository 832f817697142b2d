package middlewares

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/keyrotor/internal/auth"
	httperrors "github.com/dropDatabas3/keyrotor/internal/http/errors"
	"github.com/dropDatabas3/keyrotor/internal/http/helpers"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
	"github.com/dropDatabas3/keyrotor/internal/store/core"
)

// Authenticator valida el bearer y resuelve el usuario.
type Authenticator interface {
	VerifyAccessToken(ctx context.Context, token string) (auth.Principal, error)
	CurrentUser(ctx context.Context, p auth.Principal) (*core.User, error)
}

// RequireAuth exige un access token válido de un usuario existente.
// Toda falla de verificación es el mismo 401 INVALID_CREDENTIALS.
func RequireAuth(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := helpers.BearerToken(r)
			if tok == "" {
				httperrors.WriteError(w, httperrors.ErrTokenMissing)
				return
			}
			ctx := r.Context()
			p, err := a.VerifyAccessToken(ctx, tok)
			if err != nil {
				helpers.WriteServiceError(w, r, err)
				return
			}
			u, err := a.CurrentUser(ctx, p)
			if err != nil {
				helpers.WriteServiceError(w, r, err)
				return
			}
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(u.ID.String())))
			next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, p, u)))
		})
	}
}
