// Package keys contiene el JWKS público y la administración de claves de firma.
package keys

import (
	"context"

	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
)

// Service es el subconjunto de auth.Service que opera sobre claves.
type Service interface {
	RotateKeys(ctx context.Context, kid string) (jwtx.Rotation, error)
	RetireKey(ctx context.Context, kid string) error
	ReloadKeys(ctx context.Context) error
	JWKS() (jwtx.JWKS, error)
	ExportKeys(kid string) (map[string]string, error)
	ListKeys() []jwtx.KeyInfo
	ActiveKID() string
	KeyBackend() jwtx.Source
}

type Controllers struct {
	JWKS  *JWKSController
	Admin *AdminKeysController
}

func NewControllers(s Service) *Controllers {
	return &Controllers{
		JWKS:  &JWKSController{service: s},
		Admin: &AdminKeysController{service: s},
	}
}
