package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vietqa/accred-api/internal/models"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
	"github.com/vietqa/accred-api/pkg/response"
)

// ContextUserKey is where authenticated claims live in the Gin context.
const ContextUserKey = "currentUser"

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWTAuth validates the bearer token and stores its claims in the context.
func JWTAuth(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token"))
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the authenticated claims, if present.
func ClaimsFromContext(c *gin.Context) (*models.JWTClaims, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*models.JWTClaims)
	return claims, ok
}
