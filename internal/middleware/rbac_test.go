package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lumus-labs/lumus-api/internal/models"
)

func newCapabilityRouter(role models.UserRole, handler gin.HandlerFunc, capabilities ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: role})
	})
	r.GET("/resource", RequireCapability(capabilities...), handler)
	return r
}

func okHandler(c *gin.Context) {
	c.Status(http.StatusOK)
}

func TestLabReadsOpenToEveryRole(t *testing.T) {
	for _, role := range []models.UserRole{
		models.RoleAdmin, models.RoleProfessor, models.RoleStudent, models.RoleUser,
	} {
		r := newCapabilityRouter(role, okHandler, "read_labs")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resource", nil))
		assert.Equal(t, http.StatusOK, w.Code, "role %s should read labs", role)
	}
}

func TestCapabilityAnyOfPassesWithEither(t *testing.T) {
	r := newCapabilityRouter(models.RoleAdmin, okHandler, "create_booking", "create_schedule")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resource", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMissingCapabilityForbidden(t *testing.T) {
	r := newCapabilityRouter(models.RoleStudent, okHandler, "manage_labs")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resource", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMissingClaimsUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/resource", RequireCapability("read_labs"), okHandler)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resource", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
