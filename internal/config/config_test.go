package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestDefault_NeedsSecret(t *testing.T) {
	cfg := Default()
	assert.Equal(t, StorageMemory, cfg.Storage.Type)
	assert.Error(t, cfg.Validate())

	cfg.Auth.Secret = "s3cret"
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(env(map[string]string{
		"STORAGE_TYPE":    "postgres",
		"DATABASE_URL":    "postgres://user:password@db:5432/postsdb?sslmode=disable",
		"JWT_SECRET":      "s3cret",
		"TRACING_ENABLED": "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage.Type)
	assert.True(t, cfg.Tracing.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_BadBool(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.applyEnv(env(map[string]string{"TRACING_ENABLED": "maybe"})))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown storage", func(c *Config) { c.Storage.Type = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Type = StoragePostgres }},
		{"mongo without uri", func(c *Config) { c.Storage.Type = StorageMongo }},
		{"zero token ttl", func(c *Config) { c.Auth.TokenTTL = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.Secret = "s3cret"
			tc.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
storage:
  type: mongo-memory
auth:
  secret: from-file
  token_ttl: 2h
redis:
  ttl: 30s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, StorageMongoMemory, cfg.Storage.Type)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, "blog", cfg.Storage.MongoDatabase)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
