package auth

import (
	"context"

	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
)

// Operaciones de claves expuestas al surface administrativo.

func (s *Service) RotateKeys(ctx context.Context, kid string) (jwtx.Rotation, error) {
	rot, err := s.keys.Rotate(ctx, kid)
	s.metrics.KeyOp("rotate", err == nil)
	if err != nil {
		return rot, err
	}
	logger.From(ctx).Info("key rotation requested",
		logger.KID(rot.KID), logger.Bool("activated", rot.Activated), logger.Backend(string(s.keys.Backend())))
	return rot, nil
}

func (s *Service) RetireKey(ctx context.Context, kid string) error {
	err := s.keys.Retire(ctx, kid)
	s.metrics.KeyOp("retire", err == nil)
	return err
}

// ReloadKeys relee el backend; en modo environment es como el operador activa una clave exportada.
func (s *Service) ReloadKeys(ctx context.Context) error {
	err := s.keys.Load(ctx)
	s.metrics.KeyOp("reload", err == nil)
	return err
}

func (s *Service) JWKS() (jwtx.JWKS, error) { return s.keys.JWKS() }

func (s *Service) ExportKeys(kid string) (map[string]string, error) { return s.keys.ExportEnv(kid) }

func (s *Service) ListKeys() []jwtx.KeyInfo { return s.keys.List() }

func (s *Service) ActiveKID() string { return s.keys.ActiveKID() }

func (s *Service) KeyBackend() jwtx.Source { return s.keys.Backend() }
