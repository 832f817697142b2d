// Package router arma el árbol chi del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dropDatabas3/keyrotor/internal/auth"
	adminctrl "github.com/dropDatabas3/keyrotor/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/keyrotor/internal/http/controllers/auth"
	"github.com/dropDatabas3/keyrotor/internal/http/controllers/health"
	keysctrl "github.com/dropDatabas3/keyrotor/internal/http/controllers/keys"
	httperrors "github.com/dropDatabas3/keyrotor/internal/http/errors"
	mw "github.com/dropDatabas3/keyrotor/internal/http/middlewares"
	"github.com/dropDatabas3/keyrotor/internal/metrics"
	"github.com/dropDatabas3/keyrotor/internal/rate"
	"github.com/dropDatabas3/keyrotor/internal/store/core"
)

// Deps son las dependencias del router. Metrics, LoginLimiter y Checker son opcionales.
type Deps struct {
	Auth         *auth.Service
	Checker      health.Checker
	Metrics      *metrics.Metrics
	LoginLimiter rate.Limiter
	Logger       *zap.Logger
}

// New construye el handler HTTP completo.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(d.Logger),
		d.Metrics.Middleware,
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	authC := authctrl.NewControllers(d.Auth)
	keysC := keysctrl.NewControllers(d.Auth)
	adminC := adminctrl.NewControllers(d.Auth)
	healthC := health.NewHealthController(d.Checker, d.Auth)

	requireAuth := mw.RequireAuth(d.Auth)
	loginLimit := mw.WithRateLimit(mw.RateLimitConfig{
		Limiter: d.LoginLimiter,
		KeyFunc: mw.IPPathRateKey,
		Metrics: d.Metrics,
	})

	r.Get("/health", healthC.Health)
	r.Get("/ready", healthC.Ready)
	r.Get("/.well-known/jwks.json", keysC.JWKS.GetJWKS)
	r.Head("/.well-known/jwks.json", keysC.JWKS.GetJWKS)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/login", authC.Login.Login)
			r.Post("/refresh", authC.Refresh.Refresh)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", authC.Logout.Logout)
				r.Post("/logout-all", authC.Logout.LogoutAll)
				r.Post("/verify", authC.Me.Verify)
				r.Get("/me", authC.Me.Me)
			})
		})

		r.Route("/admin/keys", func(r chi.Router) {
			r.Use(requireAuth, mw.RequirePermission(auth.PermKeysManage))
			r.Get("/", keysC.Admin.List)
			r.Post("/rotate", keysC.Admin.Rotate)
			r.Post("/reload", keysC.Admin.Reload)
			r.Get("/export", keysC.Admin.Export)
			r.Post("/{kid}/retire", keysC.Admin.Retire)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth, mw.RequireRole(core.RoleAdmin))
			r.Get("/", adminC.Users.List)
			r.Post("/", adminC.Users.Create)
			r.Get("/{id}", adminC.Users.Get)
			r.Patch("/{id}", adminC.Users.Update)
			r.Delete("/{id}", adminC.Users.Delete)
		})
	})
	return r
}
