package middlewares

import (
	"net/http"
	"slices"

	"github.com/dropDatabas3/keyrotor/internal/auth"
	httperrors "github.com/dropDatabas3/keyrotor/internal/http/errors"
	"github.com/dropDatabas3/keyrotor/internal/store/core"
)

// RequireRole exige uno de los roles. Se evalúa el rol actual del usuario, no el del token.
func RequireRole(roles ...core.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := GetUser(r.Context())
			if u == nil {
				httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
				return
			}
			if !slices.Contains(roles, u.Role) {
				httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission exige que el rol actual del usuario otorgue perm.
func RequirePermission(perm string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := GetUser(r.Context())
			if u == nil {
				httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
				return
			}
			if !slices.Contains(auth.PermissionsFor(u.Role), perm) {
				httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("missing permission "+perm))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
