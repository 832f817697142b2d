package bootstrap

import (
	"fmt"

	"github.com/dropDatabas3/keyrotor/internal/config"
	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
)

// OpenKeyBackend construye el backend de claves configurado (filesystem | environment).
func OpenKeyBackend(cfg *config.Config) (jwtx.Backend, error) {
	switch cfg.Keys.Backend {
	case "filesystem", "":
		fs, err := jwtx.NewFileKeyStore(cfg.Keys.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "environment":
		return jwtx.NewEnvKeyStore(cfg.Keys.EnvPrefix), nil
	}
	return nil, fmt.Errorf("unknown keys backend %q", cfg.Keys.Backend)
}
