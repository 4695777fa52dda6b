package di_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/clip/internal/config"
	"github.com/msomdec/clip/internal/di"
)

func testConfig(t *testing.T, driver, path string) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Port: "0", IdleTimeout: time.Minute},
		Store:  config.StoreConfig{Driver: driver, Path: path},
		Auth: config.AuthConfig{
			JWTSecret:         "di-test-secret-0123456789abcdefghijkl",
			BcryptCost:        4,
			AnonymousSessions: true,
		},
		Logger: config.LoggerConfig{Level: "error"},
	}
}

func TestBootstrap_Drivers(t *testing.T) {
	tests := []struct {
		driver string
		path   string
	}{
		{config.DriverSQLite, "clip.db"},
		{config.DriverBadger, "clip-data"},
	}

	for _, tc := range tests {
		t.Run(tc.driver, func(t *testing.T) {
			injector := di.NewContainer(testConfig(t, tc.driver, filepath.Join(t.TempDir(), tc.path)))

			srv, err := di.Bootstrap(injector)
			require.NoError(t, err)
			require.NotNil(t, srv.Handler)

			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.driver)

			injector.Shutdown()
		})
	}
}

func TestBootstrap_UnknownDriver(t *testing.T) {
	injector := di.NewContainer(testConfig(t, "mongo", t.TempDir()))

	_, err := di.Bootstrap(injector)
	require.Error(t, err)

	_, err = do.Invoke[*di.StoreHandle](injector)
	assert.Error(t, err)
}
