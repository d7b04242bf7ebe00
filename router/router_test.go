package router

import (
	"net/http/httptest"
	"testing"

	"sisgeagro/config"
	"sisgeagro/middleware"

	"github.com/stretchr/testify/assert"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		JWT:    config.JWTConfig{Secret: "router-test-secret"},
	}
	middleware.InitJWT(cfg)
	return cfg
}

func TestSetupRouter_Health(t *testing.T) {
	r := SetupRouter(testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestSetupRouter_MovementsRequireToken(t *testing.T) {
	r := SetupRouter(testConfig())

	for _, path := range []string{"/api/v1/movements", "/api/v1/movements/export/excel", "/api/v1/dashboard/summary"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, 401, w.Code, path)
	}
}

func TestSetupRouter_SwaggerListsRoutes(t *testing.T) {
	r := SetupRouter(testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/swagger/doc.json", nil))

	assert.Equal(t, 200, w.Code)
	body := w.Body.String()
	for _, path := range []string{
		"/api/v1/auth/login",
		"/api/v1/movements/import",
		"/api/v1/movements/{id}",
		"/api/v1/movements/export/excel",
		"/api/v1/dashboard/summary",
		"/api/v1/notifications",
	} {
		assert.Contains(t, body, `"`+path+`"`)
	}
	assert.Contains(t, body, "BearerAuth")
}
