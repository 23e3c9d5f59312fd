package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lumus-labs/lumus-api/internal/models"
)

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

var auditActions = map[string]string{
	http.MethodPost:   models.AuditActionCreate,
	http.MethodPut:    models.AuditActionUpdate,
	http.MethodPatch:  models.AuditActionUpdate,
	http.MethodDelete: models.AuditActionDelete,
}

// Audit records successful mutating requests with the acting user. Failed
// requests and reads are skipped, as are unauthenticated routes.
func Audit(repo auditWriter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		action, ok := auditActions[c.Request.Method]
		if !ok || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		claims, ok := currentClaims(c)
		if !ok {
			return
		}

		entry := &models.AuditLog{
			UserID:    &claims.UserID,
			Action:    action,
			Resource:  c.FullPath(),
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if id := c.Param("id"); id != "" {
			entry.ResourceID = &id
		}
		if err := repo.CreateAuditLog(c.Request.Context(), entry); err != nil {
			logger.Warn("failed to record audit log",
				zap.String("resource", entry.Resource), zap.Error(err))
		}
	}
}
