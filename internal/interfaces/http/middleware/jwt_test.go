package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anchala/pos/internal/infrastructure/auth"
	"github.com/anchala/pos/internal/infrastructure/config"
	"github.com/anchala/pos/internal/infrastructure/logger"
	"github.com/anchala/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestTokenService() *auth.TokenService {
	return auth.NewTokenService(config.AuthConfig{
		JWTSecret: testSecret,
		TokenTTL:  15 * time.Minute,
		Issuer:    "anchala-pos",
	})
}

func issueToken(t *testing.T, svc *auth.TokenService) string {
	t.Helper()
	tok, err := svc.Issue("ravi")
	require.NoError(t, err)
	return tok.AccessToken
}

func expiredToken(t *testing.T) string {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "old",
			Issuer:    "anchala-pos",
			ExpiresAt: jwt.NewNumericDate(past),
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
		},
		Operator: "ravi",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func serveAuth(mw gin.HandlerFunc, path, authHeader string) *httptest.ResponseRecorder {
	router := gin.New()
	router.Use(mw)
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"operator": GetOperator(c)}))
	}
	router.GET("/api/v1/bills/next", handler)
	router.GET("/api/v1/health", handler)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestAuthenticate_ValidToken(t *testing.T) {
	svc := newTestTokenService()
	w := serveAuth(Authenticate(DefaultJWTConfig(svc)), "/api/v1/bills/next", "Bearer "+issueToken(t, svc))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"operator":"ravi"`)
}

func TestAuthenticate_Rejections(t *testing.T) {
	svc := newTestTokenService()
	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeTokenInvalid},
		{"wrong scheme", "Basic abc", dto.ErrCodeTokenInvalid},
		{"empty token", "Bearer ", dto.ErrCodeTokenInvalid},
		{"garbage", "Bearer not.a.jwt", dto.ErrCodeTokenInvalid},
		{"expired", "Bearer " + expiredToken(t), dto.ErrCodeTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveAuth(Authenticate(DefaultJWTConfig(svc)), "/api/v1/bills/next", tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestAuthenticate_SkipsHealth(t *testing.T) {
	w := serveAuth(Authenticate(DefaultJWTConfig(newTestTokenService())), "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate_RevokedToken(t *testing.T) {
	svc := newTestTokenService()
	token := issueToken(t, svc)
	claims, err := svc.Validate(token)
	require.NoError(t, err)

	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Minute))

	cfg := DefaultJWTConfig(svc)
	cfg.TokenBlacklist = blacklist
	w := serveAuth(Authenticate(cfg), "/api/v1/bills/next", "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, errorCode(t, w))
}

type brokenBlacklist struct{}

func (brokenBlacklist) AddToBlacklist(context.Context, string, time.Duration) error {
	return errors.New("redis down")
}

func (brokenBlacklist) IsBlacklisted(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestAuthenticate_BlacklistFailureFailsOpen(t *testing.T) {
	svc := newTestTokenService()
	cfg := DefaultJWTConfig(svc)
	cfg.TokenBlacklist = brokenBlacklist{}

	w := serveAuth(Authenticate(cfg), "/api/v1/bills/next", "Bearer "+issueToken(t, svc))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate_CustomOnError(t *testing.T) {
	cfg := DefaultJWTConfig(newTestTokenService())
	var seen error
	cfg.OnError = func(c *gin.Context, err error) {
		seen = err
		c.JSON(http.StatusTeapot, gin.H{})
	}

	w := serveAuth(Authenticate(cfg), "/api/v1/bills/next", "")
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.ErrorIs(t, seen, auth.ErrInvalidToken)
}

func TestAuthenticate_StoresOperatorOnContext(t *testing.T) {
	svc := newTestTokenService()
	router := gin.New()
	router.Use(Authenticate(DefaultJWTConfig(svc)))
	var operator string
	router.GET("/api/v1/bills/next", func(c *gin.Context) {
		operator = logger.GetOperator(c.Request.Context())
		assert.Equal(t, "ravi", GetJWTClaims(c).Operator)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills/next", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, svc))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ravi", operator)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]bool{
		"Bearer abc":   true,
		"Bearer  abc ": true,
		"bearer abc":   false,
		"Bearer":       false,
		"":             false,
	}
	for header, ok := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", header)
		token, err := BearerToken(c)
		if ok {
			assert.NoError(t, err, header)
			assert.Equal(t, "abc", token)
		} else {
			assert.Error(t, err, header)
		}
	}
}

func TestGetJWTClaims_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetOperator(c))
}
