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
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: memory
booking:
  require_matching_slot: true
outbox:
  poll_interval: 2s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.True(t, cfg.Booking.RequireMatchingSlot)
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)
	// defaults survive
	assert.Equal(t, "/api/v1", cfg.Server.BasePath)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
	assert.Equal(t, "booking.events", cfg.Redis.Channel)
	assert.Equal(t, 31*24*time.Hour, cfg.Availability.MaxRange)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  host: file-host\n")

	t.Setenv("BOOKING_DATABASE_HOST", "env-host")
	t.Setenv("BOOKING_SERVER_PORT", "7070")
	t.Setenv("BOOKING_BOOKING_REQUIRE_MATCHING_SLOT", "true")
	t.Setenv("BOOKING_OUTBOX_RETRY_DELAY", "250ms")
	t.Setenv("BOOKING_AVAILABILITY_MAX_RANGE", "48h")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Booking.RequireMatchingSlot)
	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.RetryDelay)
	assert.Equal(t, 48*time.Hour, cfg.Availability.MaxRange)
}

func TestLoadConfigRejectsNonPositiveMaxRange(t *testing.T) {
	path := writeConfig(t, "availability:\n  max_range: 0s\n")

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "max_range must be positive")
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: sqlite\n")

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "booking", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=booking sslmode=disable", d.DSN())
}
