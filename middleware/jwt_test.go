package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sisgeagro/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "clave-de-prueba"

func useTestSecret(t *testing.T) {
	InitJWT(&config.Config{JWT: config.JWTConfig{Secret: testSecret}})
	t.Cleanup(func() { jwtSecret = nil })
}

func TestGenerateToken_Claims(t *testing.T) {
	useTestSecret(t)

	token, err := GenerateToken(7, "agricultor", 2*time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "agricultor", claims.Username)
	assert.Equal(t, "sisgeagro", claims.Issuer)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, 2*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestGenerateToken_RequiresSecret(t *testing.T) {
	jwtSecret = nil
	_, err := GenerateToken(1, "x", time.Hour)
	assert.Error(t, err)
}

func TestParseToken_Rejects(t *testing.T) {
	useTestSecret(t)

	expired, err := GenerateToken(7, "viejo", -time.Minute)
	require.NoError(t, err)

	// 同一密钥但算法不是 HS256
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: 7}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 7}).SignedString([]byte("otra-clave"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"vacío":      "",
		"malformado": "not.a.valid.jwt",
		"expirado":   expired,
		"algoritmo":  hs512,
		"otra clave": otherKey,
		"sin firma":  "eyJhbGciOiJub25lIn0.eyJ1c2VyX2lkIjo3fQ.",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(token)
			assert.Error(t, err)
		})
	}
}

func guardedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWTAuth())
	router.GET("/movements", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  GetCurrentUserID(c),
			"username": c.GetString("username"),
		})
	})
	return router
}

func TestJWTAuth_RejectsBadHeaders(t *testing.T) {
	useTestSecret(t)
	expired, err := GenerateToken(7, "viejo", -time.Minute)
	require.NoError(t, err)
	valid, err := GenerateToken(7, "agricultor", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"sin cabecera", "", "falta el token"},
		{"esquema Basic", "Basic dXNlcjpwYXNz", "falta el token"},
		{"Bearer sin token", "Bearer ", "falta el token"},
		{"esquema en minúsculas", "bearer " + valid, "falta el token"},
		{"token expirado", "Bearer " + expired, "token inválido o expirado"},
		{"token basura", "Bearer abc.def.ghi", "token inválido o expirado"},
	}
	router := guardedRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/movements", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":401`)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestJWTAuth_SetsActor(t *testing.T) {
	useTestSecret(t)
	token, err := GenerateToken(42, "contadora", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/movements", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	guardedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42,"username":"contadora"}`, w.Body.String())
}

func TestGetCurrentUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uint(0), GetCurrentUserID(c))

	// 类型不符时视为未登录
	c.Set(ContextUserID, 99)
	assert.Equal(t, uint(0), GetCurrentUserID(c))

	c.Set(ContextUserID, uint(99))
	assert.Equal(t, uint(99), GetCurrentUserID(c))
}
