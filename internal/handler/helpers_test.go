package handler_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/msomdec/clip/internal/handler"
	"github.com/msomdec/clip/internal/repository/sqlite"
	"github.com/msomdec/clip/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

func newTestDeps(t *testing.T) handler.Deps {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	broker := service.NewBroker(nil)
	t.Cleanup(broker.Close)
	limiter := service.NewRateLimiter(100, 100)
	t.Cleanup(limiter.Stop)

	categories := service.NewCategoryService(db.Categories(), db.Users(), broker)
	scraps := service.NewScrapService(db.Scraps(), db.Categories(), db.FileStore(), broker)

	return handler.Deps{
		Auth:              service.NewAuthService(db.Users(), testJWTSecret, 4),
		Identity:          service.NewIdentityResolver(nil),
		Categories:        categories,
		Scraps:            scraps,
		Views:             service.NewViewRegistry(categories, scraps, 0),
		Broker:            broker,
		AuthLimiter:       limiter,
		StoreDriver:       "sqlite",
		AnonymousSessions: true,
	}
}

func newTestAuthService(t *testing.T) *service.AuthService {
	t.Helper()
	return newTestDeps(t).Auth
}

func newTestServer(t *testing.T, d handler.Deps) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(handler.NewHandler(d))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return srv, &http.Client{Jar: jar}
}
