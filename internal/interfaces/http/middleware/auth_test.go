package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defiant.backend/internal/domain/entities"
	"defiant.backend/internal/interfaces/http/middleware"
	"defiant.backend/pkg/jwt"
	"defiant.backend/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApiKeyAuthMiddleware(t *testing.T) {
	merchantID := utils.GenerateUUIDv7()
	key := &entities.ApiKey{
		ID:          utils.GenerateUUIDv7(),
		MerchantID:  merchantID,
		Permissions: []entities.ApiKeyPermission{entities.PermissionRead},
		Active:      true,
	}

	var presented string
	validate := func(ctx context.Context, p string) (*entities.ApiKey, error) {
		presented = p
		if p == "sk_good_secret" {
			return key, nil
		}
		return nil, errors.New("unknown key")
	}

	r := gin.New()
	r.Use(middleware.ApiKeyAuthMiddleware(validate))
	r.GET("/v1/payments", func(c *gin.Context) {
		gotID, ok := middleware.GetMerchantID(c)
		require.True(t, ok)
		gotKey, ok := middleware.GetApiKey(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"merchantId": gotID, "keyId": gotKey.ID})
	})

	t.Run("missing header", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/v1/payments", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authorization header is required")
	})

	t.Run("not a bearer token", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/v1/payments", map[string]string{
			"Authorization": "Basic c2s6cGFzcw==",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("empty bearer token", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/v1/payments", map[string]string{
			"Authorization": "Bearer ",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejected by validator", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/v1/payments", map[string]string{
			"Authorization": "Bearer sk_bad_secret",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid API key")
	})

	t.Run("valid key reaches handler", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/v1/payments", map[string]string{
			"Authorization": "Bearer sk_good_secret",
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "sk_good_secret", presented)
		assert.Contains(t, w.Body.String(), merchantID.String())
	})
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := jwt.NewJWTService("test-secret", time.Hour, 24*time.Hour)
	merchantID := utils.GenerateUUIDv7()

	r := gin.New()
	r.Use(middleware.JWTAuthMiddleware(svc))
	r.GET("/dashboard", func(c *gin.Context) {
		gotID, ok := middleware.GetMerchantID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"merchantId": gotID})
	})

	t.Run("valid token", func(t *testing.T) {
		pair, err := svc.GenerateTokenPair(merchantID, "owner@example.com")
		require.NoError(t, err)

		w := performRequest(r, http.MethodGet, "/dashboard", map[string]string{
			"Authorization": "Bearer " + pair.AccessToken,
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), merchantID.String())
	})

	t.Run("expired token", func(t *testing.T) {
		expired := jwt.NewJWTService("test-secret", -time.Minute, 24*time.Hour)
		pair, err := expired.GenerateTokenPair(merchantID, "owner@example.com")
		require.NoError(t, err)

		w := performRequest(r, http.MethodGet, "/dashboard", map[string]string{
			"Authorization": "Bearer " + pair.AccessToken,
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "expired")
	})

	t.Run("garbage token", func(t *testing.T) {
		w := performRequest(r, http.MethodGet, "/dashboard", map[string]string{
			"Authorization": "Bearer not.a.jwt",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := jwt.NewJWTService("other-secret", time.Hour, 24*time.Hour)
		pair, err := other.GenerateTokenPair(merchantID, "owner@example.com")
		require.NoError(t, err)

		w := performRequest(r, http.MethodGet, "/dashboard", map[string]string{
			"Authorization": "Bearer " + pair.AccessToken,
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequirePermission(t *testing.T) {
	newRouter := func(key *entities.ApiKey) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if key != nil {
				c.Set(middleware.ApiKeyKey, key)
			}
		})
		r.POST("/v1/payments", middleware.RequireWrite(), func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})
		return r
	}

	t.Run("read-only key cannot write", func(t *testing.T) {
		r := newRouter(&entities.ApiKey{
			Permissions: []entities.ApiKeyPermission{entities.PermissionRead},
		})
		w := performRequest(r, http.MethodPost, "/v1/payments", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("write key passes", func(t *testing.T) {
		r := newRouter(&entities.ApiKey{
			Permissions: []entities.ApiKeyPermission{entities.PermissionWrite},
		})
		w := performRequest(r, http.MethodPost, "/v1/payments", nil)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("admin key grants everything", func(t *testing.T) {
		r := newRouter(&entities.ApiKey{
			Permissions: []entities.ApiKeyPermission{entities.PermissionAdmin},
		})
		w := performRequest(r, http.MethodPost, "/v1/payments", nil)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("jwt session carries no key and is admin", func(t *testing.T) {
		r := newRouter(nil)
		w := performRequest(r, http.MethodPost, "/v1/payments", nil)
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestGetMerchantID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := middleware.GetMerchantID(c)
	assert.False(t, ok)

	id := utils.GenerateUUIDv7()
	c.Set(middleware.MerchantIDKey, id)
	got, ok := middleware.GetMerchantID(c)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	c.Set(middleware.MerchantIDKey, "not-a-uuid")
	_, ok = middleware.GetMerchantID(c)
	assert.False(t, ok)
}
