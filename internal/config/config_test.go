package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "offline", cfg.AI.Provider)
	assert.Equal(t, "simulated", cfg.Billing.Provider)
	assert.Equal(t, 3, cfg.Quota.FreeTierLimit)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("DB_PASSWORD", "pw")
	cfg, err := Load(writeConfig(t, `
database:
  driver: MySQL
  host: db
  user: app
  name: alchemist
ai:
  provider: openai
  model: gpt-4o
  timeout: 30s
auth:
  jwtSecret: from-file
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "sk-env", cfg.AI.APIKey)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "app:pw@tcp(db:3306)/alchemist?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}

func TestGeminiKeyFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("GEMINI_API_KEY", "g-key")
	cfg, err := Load(writeConfig(t, "ai:\n  provider: gemini\n"))
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.AI.APIKey)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"unknown driver":   "auth:\n  jwtSecret: x\ndatabase:\n  driver: oracle\n",
		"unknown provider": "auth:\n  jwtSecret: x\nai:\n  provider: llama\n",
		"missing ai key":   "auth:\n  jwtSecret: x\nai:\n  provider: openai\n",
		"stripe no price":  "auth:\n  jwtSecret: x\nbilling:\n  provider: stripe\n  secretKey: sk\n",
		"archive no minio": "auth:\n  jwtSecret: x\narchive:\n  enabled: true\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			t.Setenv("OPENAI_API_KEY", "")
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestMissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load(writeConfig(t, "server:\n  port: 1\n"))
	assert.Error(t, err)
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
