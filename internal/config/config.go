package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env  string `yaml:"env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	// Keys: backend de claves de firma. filesystem y environment son excluyentes.
	Keys struct {
		Backend      string        `yaml:"backend"`
		Dir          string        `yaml:"dir"`
		EnvPrefix    string        `yaml:"env_prefix"`
		BootstrapKID string        `yaml:"bootstrap_kid"`
		ClockSkew    time.Duration `yaml:"clock_skew"`
		// Watch recarga las claves cuando cambia Dir (solo filesystem).
		Watch bool `yaml:"watch"`
	} `yaml:"keys"`

	JWT struct {
		Issuer     string        `yaml:"issuer"`
		AccessTTL  time.Duration `yaml:"access_ttl"`
		RefreshTTL time.Duration `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	Storage struct {
		// memory | postgres
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		// "" (mismo driver) | memory | postgres | redis
		RefreshTokens string `yaml:"refresh_tokens"`
		Postgres      struct {
			MaxOpenConns    int           `yaml:"max_open_conns"`
			MaxIdleConns    int           `yaml:"max_idle_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
			Migrate         bool          `yaml:"migrate"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// memory | redis
		Backend string `yaml:"backend"`
		Login   struct {
			Limit  int           `yaml:"limit"`
			Window time.Duration `yaml:"window"`
		} `yaml:"login"`
	} `yaml:"rate"`

	// Admin sembrado al arrancar si no existe.
	Admin struct {
		Seed     bool   `yaml:"seed"`
		Login    string `yaml:"login"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
}

// Defaults retorna la configuración por defecto.
func Defaults() *Config {
	var c Config
	c.App.Env = "dev"
	c.App.Name = "keyrotor"
	c.Log.Level = "info"
	c.Server.Addr = ":8080"
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 15 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Keys.Backend = "filesystem"
	c.Keys.Dir = "keys"
	c.Keys.EnvPrefix = "JWT_KEY"
	c.Keys.BootstrapKID = "v1"
	c.Keys.Watch = true
	c.JWT.AccessTTL = 30 * time.Minute
	c.JWT.RefreshTTL = 7 * 24 * time.Hour
	c.Storage.Driver = "memory"
	c.Storage.Postgres.MaxOpenConns = 10
	c.Storage.Postgres.Migrate = true
	c.Redis.Addr = "localhost:6379"
	c.Redis.Prefix = "keyrotor:"
	c.Rate.Enabled = true
	c.Rate.Backend = "memory"
	c.Rate.Login.Limit = 5
	c.Rate.Login.Window = time.Minute
	c.Admin.Seed = true
	c.Admin.Login = "admin"
	c.Admin.Password = "admin"
	return &c
}

// Load lee el YAML (opcional: path vacío = solo defaults) y aplica overrides de entorno.
// No valida; el caller llama Validate.
func Load(path string) (*Config, error) {
	c := Defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	c.applyEnvOverrides()
	c.normalize()
	return c, nil
}

func (c *Config) normalize() {
	c.App.Env = strings.ToLower(strings.TrimSpace(c.App.Env))
	c.Keys.Backend = strings.ToLower(strings.TrimSpace(c.Keys.Backend))
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Storage.RefreshTokens = strings.ToLower(strings.TrimSpace(c.Storage.RefreshTokens))
	c.Rate.Backend = strings.ToLower(strings.TrimSpace(c.Rate.Backend))
	if c.Storage.RefreshTokens == "" {
		c.Storage.RefreshTokens = c.Storage.Driver
	}
}

// IsProd indica APP_ENV=prod.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }

// UsesRedis indica si algún componente necesita Redis.
func (c *Config) UsesRedis() bool {
	return c.Storage.RefreshTokens == "redis" || (c.Rate.Enabled && c.Rate.Backend == "redis")
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

func (c *Config) applyEnvOverrides() {
	// APP / LOG
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}

	// KEYS
	if v, ok := getEnvStr("KEYS_BACKEND"); ok {
		c.Keys.Backend = v
	}
	if v, ok := getEnvStr("KEYS_DIR"); ok {
		c.Keys.Dir = v
	}
	if v, ok := getEnvStr("KEYS_ENV_PREFIX"); ok {
		c.Keys.EnvPrefix = v
	}
	if v, ok := getEnvStr("KEYS_BOOTSTRAP_KID"); ok {
		c.Keys.BootstrapKID = v
	}
	if v, ok := getEnvDur("KEYS_CLOCK_SKEW"); ok {
		c.Keys.ClockSkew = v
	}
	if v, ok := getEnvBool("KEYS_WATCH"); ok {
		c.Keys.Watch = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvDur("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvDur("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("REFRESH_STORE"); ok {
		c.Storage.RefreshTokens = v
	}
	if v, ok := getEnvBool("STORAGE_MIGRATE"); ok {
		c.Storage.Postgres.Migrate = v
	}

	// REDIS
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Redis.Prefix = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = v
	}
	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}
	if v, ok := getEnvDur("RATE_LOGIN_WINDOW"); ok {
		c.Rate.Login.Window = v
	}

	// ADMIN
	if v, ok := getEnvBool("ADMIN_SEED"); ok {
		c.Admin.Seed = v
	}
	if v, ok := getEnvStr("ADMIN_LOGIN"); ok {
		c.Admin.Login = v
	}
	if v, ok := getEnvStr("ADMIN_PASSWORD"); ok {
		c.Admin.Password = v
	}
}

// Validate junta todos los problemas de configuración en un solo error.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	switch c.Keys.Backend {
	case "filesystem":
		if strings.TrimSpace(c.Keys.Dir) == "" {
			add("keys.dir is required for the filesystem backend")
		}
	case "environment":
		if strings.TrimSpace(c.Keys.EnvPrefix) == "" {
			add("keys.env_prefix is required for the environment backend")
		}
	default:
		add("keys.backend must be filesystem or environment, got %q", c.Keys.Backend)
	}
	if c.Keys.ClockSkew < 0 {
		add("keys.clock_skew must not be negative")
	}
	if c.JWT.AccessTTL < time.Second {
		add("jwt.access_ttl must be at least 1s")
	}
	if c.JWT.RefreshTTL < time.Second {
		add("jwt.refresh_ttl must be at least 1s")
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			add("storage.dsn is required for postgres")
		}
	default:
		add("storage.driver must be memory or postgres, got %q", c.Storage.Driver)
	}
	switch c.Storage.RefreshTokens {
	case "memory", "redis":
	case "postgres":
		if c.Storage.Driver != "postgres" {
			add("storage.refresh_tokens=postgres requires storage.driver=postgres")
		}
	default:
		add("storage.refresh_tokens must be memory, postgres or redis, got %q", c.Storage.RefreshTokens)
	}

	if c.Rate.Enabled {
		if c.Rate.Backend != "memory" && c.Rate.Backend != "redis" {
			add("rate.backend must be memory or redis, got %q", c.Rate.Backend)
		}
		if c.Rate.Login.Limit <= 0 || c.Rate.Login.Window <= 0 {
			add("rate.login limit and window must be positive")
		}
	}
	if c.UsesRedis() && strings.TrimSpace(c.Redis.Addr) == "" {
		add("redis.addr is required")
	}

	if c.Admin.Seed {
		if strings.TrimSpace(c.Admin.Login) == "" || c.Admin.Password == "" {
			add("admin.login and admin.password are required when admin.seed is enabled")
		}
		// Guardia dura: en prod nunca arrancamos con la contraseña de fábrica.
		if c.IsProd() && c.Admin.Password == "admin" {
			add("admin.password must be changed in prod")
		}
	}
	return errors.Join(errs...)
}
