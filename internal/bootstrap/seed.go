package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/keyrotor/internal/auth"
	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
	"github.com/dropDatabas3/keyrotor/internal/store/core"
)

// SeedUser es una entrada del archivo de seed.
type SeedUser struct {
	LastName       string  `yaml:"last_name"`
	FirstName      string  `yaml:"first_name"`
	MiddleName     *string `yaml:"middle_name"`
	Login          string  `yaml:"login"`
	Password       string  `yaml:"password"`
	Role           string  `yaml:"role"`
	Gender         string  `yaml:"gender"`
	ClassName      *string `yaml:"class_name"`
	GraduationYear *int    `yaml:"graduation_year"`
}

type seedFile struct {
	Users []SeedUser `yaml:"users"`
}

// LoadSeedFile lee un YAML con la forma `users: [...]`.
func LoadSeedFile(path string) ([]SeedUser, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return f.Users, nil
}

// SeedUsers crea los usuarios que no existen. Devuelve cuántos creó.
func SeedUsers(ctx context.Context, svc AdminService, users []SeedUser) (int, error) {
	log := logger.From(ctx).With(logger.Component("bootstrap"), logger.Op("SeedUsers"))
	created := 0
	for i, su := range users {
		_, err := svc.CreateUser(ctx, auth.CreateUserInput{
			LastName:       su.LastName,
			FirstName:      su.FirstName,
			MiddleName:     su.MiddleName,
			Login:          su.Login,
			Password:       su.Password,
			Role:           core.Role(su.Role),
			Gender:         core.Gender(su.Gender),
			ClassName:      su.ClassName,
			GraduationYear: su.GraduationYear,
		})
		switch {
		case err == nil:
			created++
		case errors.Is(err, auth.ErrLoginTaken):
			log.Debug("seed user already exists", logger.Login(su.Login))
		default:
			return created, fmt.Errorf("seed user #%d (%s): %w", i+1, su.Login, err)
		}
	}
	log.Info("seed finished", logger.Count(created), logger.Int("total", len(users)))
	return created, nil
}
