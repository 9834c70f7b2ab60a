package middleware

import (
	"net/http"
	"strings"

	"github.com/adfeed/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Keys used to carry merchant identity through a request
const (
	MerchantIDKey     = "merchant_id"
	MerchantHeaderKey = "X-Merchant-ID"
)

// MerchantConfig holds merchant middleware configuration
type MerchantConfig struct {
	// SkipPaths are paths served without merchant context
	SkipPaths []string
	// Required rejects requests without a merchant ID when set
	Required bool
}

// DefaultMerchantConfig returns the default merchant middleware configuration
func DefaultMerchantConfig() MerchantConfig {
	return MerchantConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready", "/api/v1/health"},
		Required:  true,
	}
}

// Merchant extracts the merchant ID from the X-Merchant-ID header, stores
// it in the gin context, and enriches the request-scoped logger with it.
func Merchant() gin.HandlerFunc {
	return MerchantWithConfig(DefaultMerchantConfig())
}

// MerchantWithConfig returns merchant middleware with custom configuration
func MerchantWithConfig(cfg MerchantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		merchantID := c.GetHeader(MerchantHeaderKey)
		if merchantID == "" {
			if cfg.Required {
				abortUnauthorized(c, "Merchant identification required")
				return
			}
			c.Next()
			return
		}
		if _, err := uuid.Parse(merchantID); err != nil {
			abortUnauthorized(c, "Invalid merchant ID format")
			return
		}

		c.Set(MerchantIDKey, merchantID)

		ctx := c.Request.Context()
		ctx, _ = logger.WithMerchantID(ctx, logger.FromContext(ctx), merchantID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetMerchantUUID retrieves the merchant ID from gin.Context
func GetMerchantUUID(c *gin.Context) (uuid.UUID, error) {
	if merchantID, exists := c.Get(MerchantIDKey); exists {
		if id, ok := merchantID.(string); ok {
			return uuid.Parse(id)
		}
	}
	return uuid.Nil, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
