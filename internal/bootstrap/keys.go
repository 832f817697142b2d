package bootstrap

import (
	"context"
	"errors"

	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
)

// KeyManager es el subconjunto de jwt.Manager usado al arrancar.
type KeyManager interface {
	ActiveKID() string
	Backend() jwtx.Source
	Rotate(ctx context.Context, kid string) (jwtx.Rotation, error)
}

// EnsureSigningKey garantiza una clave activa cuando el backend puede persistirla.
// Con backend environment no genera nada: loguea NoActiveKey con instrucciones y sigue.
func EnsureSigningKey(ctx context.Context, keys KeyManager, bootstrapKID, envPrefix string) error {
	log := logger.From(ctx).With(logger.Component("bootstrap"), logger.Op("EnsureSigningKey"),
		logger.Backend(string(keys.Backend())))
	if kid := keys.ActiveKID(); kid != "" {
		log.Info("signing key ready", logger.ActiveKID(kid))
		return nil
	}

	if keys.Backend() == jwtx.SourceEnvironment {
		log.Error("no active signing key",
			logger.Err(jwtx.ErrNoActiveKey),
			logger.String("hint", "run `keys init --kid "+bootstrapKID+" --write-env .env` and export "+
				jwtx.EnvVarName(envPrefix, bootstrapKID, "PRIVATE")+" / "+jwtx.EnvVarName(envPrefix, bootstrapKID, "PUBLIC")+", then restart"))
		return nil
	}

	rot, err := keys.Rotate(ctx, bootstrapKID)
	if errors.Is(err, jwtx.ErrKIDExists) {
		// el kid existe pero solo para verificación (retirado): sintetizar uno nuevo
		rot, err = keys.Rotate(ctx, "")
	}
	if err != nil {
		log.Error("bootstrap key generation failed", logger.Err(err))
		return err
	}
	log.Info("bootstrap signing key created", logger.KID(rot.KID))
	return nil
}
