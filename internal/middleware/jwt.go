package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/response"
)

// ContextInstructorKey is the gin context key storing instructor claims.
const ContextInstructorKey = "instructor"

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.InstructorClaims, error)
}

// JWT protects instructor routes by requiring a valid bearer token.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextInstructorKey, claims)
		c.Next()
	}
}

// InstructorFromContext returns the claims attached by JWT, if any.
func InstructorFromContext(c *gin.Context) *models.InstructorClaims {
	value, exists := c.Get(ContextInstructorKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.InstructorClaims)
	return claims
}
