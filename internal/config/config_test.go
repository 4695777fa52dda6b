package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/clip/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func noEnvFile(t *testing.T) string {
	t.Helper()
	return "-env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := config.Load([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, config.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "clip.db", cfg.Store.Path)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Auth.CookieSecure)
	assert.True(t, cfg.Auth.AnonymousSessions)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.Empty(t, cfg.Server.AllowedOrigins)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "sqlite")

	cfg, err := config.Load([]string{noEnvFile(t), "-port=7000", "-store=badger"})
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, config.DriverBadger, cfg.Store.Driver)
	assert.Equal(t, "clip-data", cfg.Store.Path)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	content := "JWT_SECRET=" + testSecret + "\nALLOWED_ORIGINS=http://a.test, http://b.test\nCOOKIE_SECURE=false\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))

	// godotenv sets process env; clear what it touches afterwards.
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("COOKIE_SECURE", "")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("ALLOWED_ORIGINS")
	os.Unsetenv("COOKIE_SECURE")

	cfg, err := config.Load([]string{"-env-file=" + envPath})
	require.NoError(t, err)

	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Auth.CookieSecure)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET is required"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "at least 32 characters"},
		{"bad cost", map[string]string{"JWT_SECRET": testSecret, "BCRYPT_COST": "20"}, "BCRYPT_COST"},
		{"bad driver", map[string]string{"JWT_SECRET": testSecret, "STORE_DRIVER": "mongo"}, "invalid store driver"},
		{"bad level", map[string]string{"JWT_SECRET": testSecret, "LOG_LEVEL": "loud"}, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load([]string{noEnvFile(t)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
