package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims *JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return signed
}

func authProtectedRouter() (*gin.Engine, *gin.Context) {
	var captured gin.Context
	router := gin.New()
	middleware := NewAuthMiddleware(testSecret)
	router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
		captured.Keys = c.Copy().Keys
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router, &captured
}

func TestAuthenticate_ValidToken(t *testing.T) {
	router, captured := authProtectedRouter()

	token := signToken(t, &JWTClaims{
		UserID: "user-1",
		Email:  "student@mvla.net",
		Name:   "Jordan",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", captured.GetString("user_id"))
	assert.Equal(t, "student@mvla.net", captured.GetString("email"))
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	router, _ := authProtectedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	router, _ := authProtectedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "NotBearer token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	router, _ := authProtectedRouter()

	token := signToken(t, &JWTClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	router, _ := authProtectedRouter()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{UserID: "user-1"})
	signed, err := token.SignedString([]byte("other-secret"))
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
