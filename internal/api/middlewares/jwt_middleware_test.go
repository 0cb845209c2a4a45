package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret, userID string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runMiddleware(r *http.Request) (*httptest.ResponseRecorder, string) {
	var gotUserID string
	handler := JWTMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = r.Context().Value("user_id").(string)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w, gotUserID
}

func TestJWTMiddlewareBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user-1"))

	w, userID := runMiddleware(r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", userID)
}

func TestJWTMiddlewareCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: signToken(t, testSecret, "user-2")})

	w, userID := runMiddleware(r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-2", userID)
}

func TestJWTMiddlewareMissingToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)

	w, _ := runMiddleware(r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareWrongSecret(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, "some-other-secret", "user-1"))

	w, _ := runMiddleware(r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareExpiredToken(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
	r.Header.Set("Authorization", "Bearer "+signed)

	w, _ := runMiddleware(r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
