package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/go-reviser/reviser-api/internal/models"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
	"github.com/go-reviser/reviser-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

type tokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

type adminChecker interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// JWT protects routes by requiring a valid access token.
func JWT(auth tokenValidator) gin.HandlerFunc {
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

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// AdminOnly restricts a route to administrators. The admin flag is read from
// the user row rather than the token so revocations apply immediately.
func AdminOnly(users adminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		if !user.IsAdmin {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
