// Package auth es el servicio de credenciales: login con password, tokens de acceso
// firmados con la clave activa, refresh tokens opacos rotativos y operaciones de claves.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
	"github.com/dropDatabas3/keyrotor/internal/metrics"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
	"github.com/dropDatabas3/keyrotor/internal/security/password"
	tokens "github.com/dropDatabas3/keyrotor/internal/security/token"
	"github.com/dropDatabas3/keyrotor/internal/store/core"
	"github.com/dropDatabas3/keyrotor/internal/util"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess = "access"
	TokenTypeBearer = "bearer"
)

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Issuer se emite como "iss" si no está vacío.
	Issuer         string
	PasswordParams password.Params
}

// TokenPair es la respuesta de login/refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

type Service struct {
	users   core.UserRepository
	refresh core.RefreshTokenRepository
	issuer  *jwtx.Issuer
	keys    *jwtx.Manager
	cfg     Config
	metrics *metrics.Metrics
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithClock(fn func() time.Time) Option { return func(s *Service) { s.now = fn } }

func NewService(users core.UserRepository, refresh core.RefreshTokenRepository, issuer *jwtx.Issuer, cfg Config, opts ...Option) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 30 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.PasswordParams == (password.Params{}) {
		cfg.PasswordParams = password.Default
	}
	s := &Service{
		users:   users,
		refresh: refresh,
		issuer:  issuer,
		keys:    issuer.Keys(),
		cfg:     cfg,
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Keys() *jwtx.Manager { return s.keys }

// HashPassword usa los parámetros argon2id configurados.
func (s *Service) HashPassword(plain string) (string, error) {
	return password.Hash(s.cfg.PasswordParams, plain)
}

// burnPasswordCheck iguala el costo de un login con usuario inexistente.
func (s *Service) burnPasswordCheck(plain string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = password.Hash(s.cfg.PasswordParams, "keyrotor-dummy-password")
	})
	_ = password.Verify(plain, s.dummyHash)
}

// ================================================================
// Login / Refresh / Logout
// ================================================================

func (s *Service) Login(ctx context.Context, login, plain string) (*TokenPair, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"), logger.Op("Login"))
	if login == "" || plain == "" {
		return nil, ErrMissingFields
	}

	u, err := s.users.GetByLogin(ctx, login)
	if errors.Is(err, core.ErrNotFound) {
		s.burnPasswordCheck(plain)
		log.Debug("login failed", logger.Login(util.MaskLogin(login)), logger.Reason("unknown_login"))
		s.metrics.AuthEvent("login", false)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	if !password.Verify(plain, u.PasswordHash) {
		log.Debug("login failed", logger.Login(util.MaskLogin(login)), logger.Reason("bad_password"))
		s.metrics.AuthEvent("login", false)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return nil, err
	}
	log.Info("login succeeded", logger.UserID(u.ID.String()), logger.Role(string(u.Role)))
	s.metrics.AuthEvent("login", true)
	return pair, nil
}

// Refresh rota el refresh token: el presentado queda revocado y se emite un par nuevo.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"), logger.Op("Refresh"))
	if refreshToken == "" {
		return nil, ErrMissingFields
	}
	hash := tokens.SHA256Base64URL(refreshToken)

	rt, err := s.refresh.GetActive(ctx, hash)
	if errors.Is(err, core.ErrNotFound) {
		s.metrics.AuthEvent("refresh", false)
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup refresh token: %w", err)
	}
	u, err := s.users.GetByID(ctx, rt.UserID)
	if errors.Is(err, core.ErrNotFound) {
		s.metrics.AuthEvent("refresh", false)
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}

	// Si otro request ya lo revocó, este pierde la carrera.
	revoked, err := s.refresh.Revoke(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("auth: revoke refresh token: %w", err)
	}
	if !revoked {
		log.Warn("refresh token reused concurrently", logger.UserID(u.ID.String()))
		s.metrics.AuthEvent("refresh", false)
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return nil, err
	}
	s.metrics.AuthEvent("refresh", true)
	return pair, nil
}

// Logout revoca el refresh token si pertenece al principal. Devuelve si hubo revocación.
func (s *Service) Logout(ctx context.Context, p Principal, refreshToken string) (bool, error) {
	if refreshToken == "" {
		return false, ErrMissingFields
	}
	hash := tokens.SHA256Base64URL(refreshToken)
	rt, err := s.refresh.GetActive(ctx, hash)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auth: lookup refresh token: %w", err)
	}
	if rt.UserID != p.UserID {
		return false, nil
	}
	ok, err := s.refresh.Revoke(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("auth: revoke refresh token: %w", err)
	}
	s.metrics.AuthEvent("logout", ok)
	return ok, nil
}

// LogoutAll revoca todos los refresh tokens activos del usuario.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.refresh.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("auth: revoke all: %w", err)
	}
	logger.From(ctx).Info("refresh tokens revoked", logger.UserID(userID.String()), logger.Count(n))
	return n, nil
}

func (s *Service) issuePair(ctx context.Context, u *core.User) (*TokenPair, error) {
	access, err := s.IssueAccessToken(ctx, u)
	if err != nil {
		return nil, err
	}
	raw, err := tokens.GenerateOpaqueToken(tokens.RefreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenIssueFailed, err)
	}
	expiresAt := s.now().Add(s.cfg.RefreshTTL)
	if _, err := s.refresh.Create(ctx, u.ID, tokens.SHA256Base64URL(raw), expiresAt); err != nil {
		return nil, fmt.Errorf("%w: store refresh token: %w", ErrTokenIssueFailed, err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    int64(s.cfg.AccessTTL / time.Second),
		TokenType:    TokenTypeBearer,
	}, nil
}

// ================================================================
// Access tokens
// ================================================================

// IssueAccessToken firma {sub, role, permissions, type} con la clave activa.
func (s *Service) IssueAccessToken(ctx context.Context, u *core.User) (string, error) {
	claims := map[string]any{
		"sub":         u.ID.String(),
		"role":        string(u.Role),
		"permissions": PermissionsFor(u.Role),
		"type":        TokenTypeAccess,
	}
	if s.cfg.Issuer != "" {
		claims["iss"] = s.cfg.Issuer
	}
	tok, err := s.issuer.Issue(claims, s.cfg.AccessTTL)
	if err != nil {
		logger.From(ctx).Error("access token issue failed", logger.UserID(u.ID.String()), logger.Err(err))
		return "", fmt.Errorf("%w: %w", ErrTokenIssueFailed, err)
	}
	return tok, nil
}

// VerifyAccessToken valida firma, tiempos y tipo. Cualquier falla es ErrInvalidCredentials;
// la causa original queda encadenada para logs.
func (s *Service) VerifyAccessToken(ctx context.Context, token string) (Principal, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		s.metrics.TokenFailure(failureReason(err))
		logger.From(ctx).Debug("access token rejected", logger.Err(err))
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if typ, _ := claims["type"].(string); typ != TokenTypeAccess {
		s.metrics.TokenFailure("wrong_type")
		return Principal{}, fmt.Errorf("%w: token type %q", ErrInvalidCredentials, typ)
	}
	if s.cfg.Issuer != "" {
		if iss, _ := claims["iss"].(string); iss != s.cfg.Issuer {
			s.metrics.TokenFailure("wrong_issuer")
			return Principal{}, fmt.Errorf("%w: issuer mismatch", ErrInvalidCredentials)
		}
	}
	sub, _ := claims["sub"].(string)
	uid, err := uuid.Parse(sub)
	if err != nil {
		s.metrics.TokenFailure("bad_subject")
		return Principal{}, fmt.Errorf("%w: bad subject", ErrInvalidCredentials)
	}
	role, _ := claims["role"].(string)
	return Principal{UserID: uid, Role: core.Role(role), Permissions: stringSlice(claims["permissions"])}, nil
}

// CurrentUser resuelve el usuario del principal; un usuario borrado invalida el token.
func (s *Service) CurrentUser(ctx context.Context, p Principal) (*core.User, error) {
	u, err := s.users.GetByID(ctx, p.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	return u, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, jwtx.ErrMissingKID):
		return "missing_kid"
	case errors.Is(err, jwtx.ErrUnknownKID):
		return "unknown_kid"
	case errors.Is(err, jwtx.ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, jwtx.ErrExpired):
		return "expired"
	case errors.Is(err, jwtx.ErrNotYetValid):
		return "not_yet_valid"
	default:
		return "malformed"
	}
}

func stringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}
