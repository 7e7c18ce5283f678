package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
http:
  address: ":8080"
database:
  host: localhost
  port: 5432
  user: chauffeur
  password: from-file
  name: chauffeur
  ssl_mode: disable
payment:
  base_url: https://test.example.com
  entity_id: ent-1
booking:
  confirmation_ttl_minutes: 30
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	t.Setenv("DB_PASSWORD", "from-env")
	t.Setenv("PAYMENT_ACCESS_TOKEN", "secret-token")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "secret-token", cfg.Payment.AccessToken)
	assert.Equal(t, "DB", cfg.Payment.PaymentType)
	assert.Equal(t, 30, cfg.Booking.ConfirmationTTLMinutes)
	assert.Equal(t, 1, cfg.Booking.SubmitRetries())
	assert.Equal(t, "jo", cfg.Maps.Region)
	assert.False(t, cfg.IsProduction())
	assert.Contains(t, cfg.Database.DSN(), "password=from-env")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_ZeroRetriesIsKept(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "booking:\n  max_submit_retries: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Booking.SubmitRetries())
}

func TestLoadConfig_NegativeRetriesRejected(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "booking:\n  max_submit_retries: -1\n"))
	assert.Error(t, err)
}

func TestLoadConfig_NegativeDraftTTLRejected(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "booking:\n  draft_ttl_minutes: -5\n"))
	assert.Error(t, err)
}

func TestLoadConfig_ProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig(writeConfig(t, "env: production\n"))
	assert.ErrorContains(t, err, "jwt_secret")

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := LoadConfig(writeConfig(t, "env: production\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}
