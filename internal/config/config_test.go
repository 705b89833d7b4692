package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_DefaultsWithSecret(t *testing.T) {
	t.Setenv("ADMIN_AUTH_SESSION_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.CookieSecure)
	assert.Equal(t, "admin-console.db", cfg.Database.Path)
	assert.Equal(t, testSecret, cfg.Auth.SessionSecret)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 5, cfg.Auth.LoginBurst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Seed.AdminEmail)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ADMIN_AUTH_SESSION_SECRET", testSecret)
	t.Setenv("ADMIN_SERVER_PORT", "9090")
	t.Setenv("ADMIN_SERVER_COOKIE_SECURE", "false")
	t.Setenv("ADMIN_DATABASE_PATH", "/tmp/console.db")
	t.Setenv("ADMIN_AUTH_BCRYPT_COST", "4")
	t.Setenv("ADMIN_AUTH_LOGIN_RATE", "1.5")
	t.Setenv("ADMIN_SEED_ADMIN_EMAIL", "root@example.com")
	t.Setenv("ADMIN_SEED_ADMIN_PASSWORD", "changeme123")
	t.Setenv("ADMIN_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.Server.CookieSecure)
	assert.Equal(t, "/tmp/console.db", cfg.Database.Path)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
	assert.InDelta(t, 1.5, cfg.Auth.LoginRate, 1e-9)
	assert.Equal(t, "root@example.com", cfg.Seed.AdminEmail)
	assert.Equal(t, "changeme123", cfg.Seed.AdminPassword)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ADMIN_AUTH_SESSION_SECRET="+testSecret+"\nADMIN_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("ADMIN_LOG_LEVEL", "warn")
	// godotenv sets variables on the process; make sure they are undone.
	t.Setenv("ADMIN_AUTH_SESSION_SECRET", "")
	require.NoError(t, os.Unsetenv("ADMIN_AUTH_SESSION_SECRET"))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, testSecret, cfg.Auth.SessionSecret)
	assert.Equal(t, "warn", cfg.Log.Level, "process environment wins over the file")
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	t.Setenv("ADMIN_AUTH_SESSION_SECRET", testSecret)

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing secret", nil, "SessionSecret"},
		{"short secret", map[string]string{"ADMIN_AUTH_SESSION_SECRET": "short"}, "SessionSecret"},
		{"bcrypt too high", map[string]string{"ADMIN_AUTH_SESSION_SECRET": testSecret, "ADMIN_AUTH_BCRYPT_COST": "20"}, "BcryptCost"},
		{"bad log level", map[string]string{"ADMIN_AUTH_SESSION_SECRET": testSecret, "ADMIN_LOG_LEVEL": "loud"}, "Level"},
		{"seed without password", map[string]string{"ADMIN_AUTH_SESSION_SECRET": testSecret, "ADMIN_SEED_ADMIN_EMAIL": "root@example.com"}, "AdminPassword"},
		{"non-numeric port", map[string]string{"ADMIN_AUTH_SESSION_SECRET": testSecret, "ADMIN_SERVER_PORT": "http"}, "Port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTransformEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ADMIN_AUTH_SESSION_SECRET", "auth.session_secret"},
		{"ADMIN_SERVER_PORT", "server.port"},
		{"ADMIN_LOG", ""},
		{"ADMIN_", ""},
	}
	for _, tt := range tests {
		got, _ := transformEnvKey(tt.in, "x")
		assert.Equal(t, tt.want, got, tt.in)
	}
}
