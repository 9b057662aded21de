// Package config loads service settings from an optional YAML file and the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory      = "in-memory"
	StoragePostgres    = "postgres"
	StorageMongo       = "mongo"
	StorageMongoMemory = "mongo-memory"
)

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
}

type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
}

type StorageConfig struct {
	Type          string `yaml:"type"`
	DatabaseURL   string `yaml:"database_url"`
	MigrationsDir string `yaml:"migrations_dir"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

// RedisConfig enables the post cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			ShutdownGrace:  10 * time.Second,
		},
		Storage: StorageConfig{
			Type:          StorageMemory,
			MigrationsDir: "migrations",
			MongoDatabase: "blog",
		},
		Redis: RedisConfig{TTL: 5 * time.Minute},
		Auth:  AuthConfig{TokenTTL: 24 * time.Hour},
		Log:   LogConfig{Level: "info"},
	}
}

// Load applies defaults, then the YAML file at path (if any), then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.Wrap(err, "parse config")
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	vars := map[string]*string{
		"HTTP_ADDR":      &c.HTTP.Addr,
		"STORAGE_TYPE":   &c.Storage.Type,
		"DATABASE_URL":   &c.Storage.DatabaseURL,
		"MIGRATIONS_DIR": &c.Storage.MigrationsDir,
		"MONGO_URI":      &c.Storage.MongoURI,
		"MONGO_DATABASE": &c.Storage.MongoDatabase,
		"REDIS_ADDR":     &c.Redis.Addr,
		"REDIS_PASSWORD": &c.Redis.Password,
		"JWT_SECRET":     &c.Auth.Secret,
		"LOG_LEVEL":      &c.Log.Level,
	}
	for key, dst := range vars {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("TRACING_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "TRACING_ENABLED")
		}
		c.Tracing.Enabled = enabled
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageMemory, StorageMongoMemory:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for postgres storage")
		}
	case StorageMongo:
		if c.Storage.MongoURI == "" {
			return errors.New("MONGO_URI is required for mongo storage")
		}
	default:
		return errors.Errorf("unknown storage type %q", c.Storage.Type)
	}

	if c.Auth.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	return nil
}
