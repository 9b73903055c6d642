package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/auth"
	"github.com/pos/backend/internal/infrastructure/config"
)

func newTestTokenService(t *testing.T) *auth.TokenService {
	t.Helper()
	return auth.NewTokenService(config.JWTConfig{
		Secret:                "test-secret-key-for-middleware",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
}

func issueTestToken(t *testing.T, svc *auth.TokenService, caps ...shared.Capability) string {
	t.Helper()
	token, err := svc.IssueToken(auth.IssueTokenInput{
		TenantID:     uuid.New(),
		OperatorID:   uuid.New(),
		OperatorName: "Rosa Quispe",
		StoreID:      uuid.New(),
		Capabilities: shared.NewCapabilitySet(caps...),
	})
	require.NoError(t, err)
	return token.AccessToken
}

func setupRouter(mw gin.HandlerFunc, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	handlers := append(extra, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"operator_id": GetJWTOperatorID(c),
			"tenant_id":   GetJWTTenantID(c),
			"store_id":    GetJWTStoreID(c),
		})
	})
	r.GET("/api/v1/sales", handlers...)
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestTokenService(t)
	token := issueTestToken(t, svc, shared.CapabilityCashier)
	r := setupRouter(JWTAuthMiddleware(svc))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "operator_id")
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	svc := newTestTokenService(t)
	r := setupRouter(JWTAuthMiddleware(svc))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTAuthMiddleware_MalformedHeader(t *testing.T) {
	svc := newTestTokenService(t)
	r := setupRouter(JWTAuthMiddleware(svc))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	expired := auth.NewTokenService(config.JWTConfig{
		Secret:                "test-secret-key-for-middleware",
		AccessTokenExpiration: -time.Minute,
		Issuer:                "test-issuer",
	})
	token := issueTestToken(t, expired, shared.CapabilityCashier)

	svc := newTestTokenService(t)
	r := setupRouter(JWTAuthMiddleware(svc))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	svc := newTestTokenService(t)
	r := setupRouter(JWTAuthMiddleware(svc))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_RevokedToken(t *testing.T) {
	svc := newTestTokenService(t)
	token := issueTestToken(t, svc, shared.CapabilityCashier)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.Revoke(context.Background(), claims.ID, time.Hour))

	cfg := DefaultJWTConfig(svc)
	cfg.TokenBlacklist = blacklist
	r := setupRouter(JWTAuthMiddlewareWithConfig(cfg))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_REVOKED")
}

func TestJWTAuthMiddleware_OperatorRevocation(t *testing.T) {
	svc := newTestTokenService(t)
	token := issueTestToken(t, svc, shared.CapabilityCashier)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.RevokeOperator(context.Background(), claims.Subject, time.Hour))

	cfg := DefaultJWTConfig(svc)
	cfg.TokenBlacklist = blacklist
	r := setupRouter(JWTAuthMiddlewareWithConfig(cfg))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireCapability_Allowed(t *testing.T) {
	svc := newTestTokenService(t)
	token := issueTestToken(t, svc, shared.CapabilityCashier)
	r := setupRouter(JWTAuthMiddleware(svc), RequireCapability(shared.CapabilityCashier))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireCapability_Forbidden(t *testing.T) {
	svc := newTestTokenService(t)
	token := issueTestToken(t, svc, shared.CapabilityLogistics)
	r := setupRouter(JWTAuthMiddleware(svc), RequireCapability(shared.CapabilityManager))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "FORBIDDEN")
}

func TestRequireCapability_AdminBypass(t *testing.T) {
	svc := newTestTokenService(t)
	token := issueTestToken(t, svc, shared.CapabilityAdmin)
	r := setupRouter(JWTAuthMiddleware(svc), RequireCapability(shared.CapabilityManager))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
