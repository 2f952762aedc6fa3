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
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := writeConfig(t, `
app:
  timezone: Europe/Paris
  storage: memory
jwt:
  secret: file-secret
booking:
  double_booking: reject
  enforce_transitions: true
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.App.Storage)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, "file-secret", cfg.JWT.RefreshSecret)
	assert.Equal(t, DoubleBookingReject, cfg.Booking.DoubleBooking)
	assert.True(t, cfg.Booking.EnforceTransitions)
	assert.Equal(t, 5*time.Minute, cfg.Reset.CodeTTL())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "Europe/Paris", cfg.App.Location().String())
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	dir := writeConfig(t, `
jwt:
  secret: file-secret
database:
  password: from-file
`)
	t.Setenv("MEDBOOK_JWT_SECRET", "env-secret")
	t.Setenv("MEDBOOK_DB_PASSWORD", "env-password")
	t.Setenv("MEDBOOK_SERVER_PORT", "9090")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "env-password", cfg.Database.Password)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfigWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("MEDBOOK_JWT_SECRET", "only-env")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.App.Storage)
	assert.Equal(t, DoubleBookingAllow, cfg.Booking.DoubleBooking)
	assert.Equal(t, "memory", cfg.Reset.Store)
	assert.Equal(t, "memory", cfg.Worker.Broker)
	assert.False(t, cfg.NeedsRedis())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing secret", "app:\n  storage: memory\n"},
		{"bad policy", "jwt:\n  secret: s\nbooking:\n  double_booking: maybe\n"},
		{"redis store without url", "jwt:\n  secret: s\nreset:\n  store: redis\n"},
		{"redis broker without url", "jwt:\n  secret: s\nworker:\n  broker: redis\n"},
		{"unknown broker", "jwt:\n  secret: s\nworker:\n  broker: kafka\n"},
		{"bad timezone", "jwt:\n  secret: s\napp:\n  timezone: Mars/Olympus\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
