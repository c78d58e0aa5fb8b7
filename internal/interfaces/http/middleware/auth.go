package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"defiant.backend/internal/domain/entities"
	"defiant.backend/pkg/jwt"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// MerchantIDKey is the context key for the authenticated merchant
	MerchantIDKey = "merchantId"
	// MerchantEmailKey is the context key for the merchant email
	MerchantEmailKey = "merchantEmail"
	// ApiKeyKey is the context key for the authenticated API key
	ApiKeyKey = "apiKey"
)

// KeyValidatorFunc validates a presented API key and returns it if valid.
type KeyValidatorFunc func(ctx context.Context, presented string) (*entities.ApiKey, error)

// ApiKeyAuthMiddleware authenticates requests by secret API key. The key is
// taken from "Authorization: Bearer sk_..." and resolved through the key
// store; on success the merchant ID and the key itself are set in context.
func ApiKeyAuthMiddleware(validate KeyValidatorFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "Authorization header is required. Use: Bearer <api key>")
			return
		}

		key, err := validate(c.Request.Context(), presented)
		if err != nil {
			abortUnauthorized(c, "Invalid API key")
			return
		}

		c.Set(MerchantIDKey, key.MerchantID)
		c.Set(ApiKeyKey, key)

		c.Next()
	}
}

// JWTAuthMiddleware authenticates dashboard requests by JWT access token.
func JWTAuthMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "Authorization header is required. Use: Bearer <token>")
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			if err == jwt.ErrExpiredToken {
				abortUnauthorized(c, "Token has expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(MerchantIDKey, claims.MerchantID)
		c.Set(MerchantEmailKey, claims.Email)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" || !strings.HasPrefix(authHeader, BearerPrefix) {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, BearerPrefix)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    http.StatusUnauthorized,
			"message": message,
		},
	})
}

// GetMerchantID gets the authenticated merchant ID from context
func GetMerchantID(c *gin.Context) (uuid.UUID, bool) {
	merchantID, exists := c.Get(MerchantIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := merchantID.(uuid.UUID)
	return id, ok
}

// GetApiKey gets the authenticated API key from context
func GetApiKey(c *gin.Context) (*entities.ApiKey, bool) {
	v, exists := c.Get(ApiKeyKey)
	if !exists {
		return nil, false
	}
	key, ok := v.(*entities.ApiKey)
	return key, ok
}

// RequirePermission creates a middleware that requires the API key to carry
// the given permission. Requests authenticated by JWT session carry no key
// and are treated as admin.
func RequirePermission(p entities.ApiKeyPermission) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, exists := GetApiKey(c)
		if !exists {
			c.Next()
			return
		}

		if !key.HasPermission(p) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    http.StatusForbidden,
					"message": "API key lacks the required permission",
				},
			})
			return
		}

		c.Next()
	}
}

// RequireWrite requires a key with the write permission
func RequireWrite() gin.HandlerFunc {
	return RequirePermission(entities.PermissionWrite)
}

// RequireAdmin requires a key with the admin permission
func RequireAdmin() gin.HandlerFunc {
	return RequirePermission(entities.PermissionAdmin)
}
