package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/lumus-labs/lumus-api/internal/models"
	appErrors "github.com/lumus-labs/lumus-api/pkg/errors"
	"github.com/lumus-labs/lumus-api/pkg/response"
)

// RequireCapability gates a route on the capability table. Authorization is
// capability based rather than role based so handlers never inspect roles.
// When several capabilities are given, holding any one of them is enough.
func RequireCapability(capabilities ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		for _, capability := range capabilities {
			if models.HasCapability(claims.Role, capability) {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireCapabilityOrSelf allows the route when the caller holds the
// capability or targets their own :id.
func RequireCapabilityOrSelf(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if models.HasCapability(claims.Role, capability) {
			c.Next()
			return
		}
		if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
