package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("ANON_KEY", "anon")
	t.Setenv("SERVICE_ROLE_KEY", "service")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.True(t, cfg.Database.MigrateOnStart)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://exp.host/--/api/v2/push/send", cfg.Push.GatewayURL)
	assert.Equal(t, time.Duration(0), cfg.Push.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Notification.ReminderStaleAfter)
	assert.Equal(t, 64, cfg.Realtime.SubscriberBuffer)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REMINDER_STALE_AFTER", "15m")
	t.Setenv("PUSH_GATEWAY_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Notification.ReminderStaleAfter)
	assert.Equal(t, 3*time.Second, cfg.Push.Timeout)
}

func TestLoad_ConfigFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME: seeds_from_file\nLOG_LEVEL: debug\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "seeds_from_file", cfg.Database.Name)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("ANON_KEY", "")
	t.Setenv("SERVICE_ROLE_KEY", "service")
	t.Setenv("JWT_SECRET", "jwt-secret")

	_, err := Load("")
	assert.ErrorContains(t, err, "ANON_KEY")
}

func TestLoad_SameKeyForBothScopes(t *testing.T) {
	t.Setenv("ANON_KEY", "same")
	t.Setenv("SERVICE_ROLE_KEY", "same")
	t.Setenv("JWT_SECRET", "jwt-secret")

	_, err := Load("")
	assert.ErrorContains(t, err, "must differ")
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_CONN_MAX_LIFETIME", "forever")

	_, err := Load("")
	assert.ErrorContains(t, err, "DB_CONN_MAX_LIFETIME")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 3307, Name: "seeds"}

	assert.Equal(t, "u:p@tcp(db:3307)/seeds?parseTime=true&clientFoundRows=true", db.DSN())
}
