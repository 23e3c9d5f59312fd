package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/lumus-labs/lumus-api/internal/handler"
	"github.com/lumus-labs/lumus-api/internal/middleware"
	"github.com/lumus-labs/lumus-api/internal/service"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Course   *handler.CourseHandler
	Student  *handler.StudentHandler
	Lab      *handler.LabHandler
	Schedule *handler.ScheduleHandler
}

// Register mounts every route group on the engine. Authorization is
// capability based: each mutating route names the capability it needs.
func Register(r *gin.Engine, prefix string, h Handlers, authSvc *service.AuthService, metricsSvc *service.MetricsService, db *sqlx.DB) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if db != nil {
			if err := db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", middleware.JWT(authSvc), middleware.RequireCapability("system_settings"), gin.WrapH(metricsSvc.Handler()))

	api := r.Group(prefix)

	// Slot grid and day view are public so display boards can poll them.
	public := api.Group("/schedules")
	{
		public.GET("/slots", h.Schedule.Slots)
		public.GET("/day/:date", h.Schedule.DayView)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/refresh", h.Auth.Refresh)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", h.Auth.Logout)
		authed.POST("/change-password", h.Auth.ChangePassword)
		authed.GET("/me", h.Auth.Me)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("", middleware.RequireCapability("read_user"), h.User.List)
		users.POST("", middleware.RequireCapability("create_user"), h.User.Create)
		users.GET("/:id", middleware.RequireCapabilityOrSelf("read_user"), h.User.Get)
		users.PUT("/:id", middleware.RequireCapabilityOrSelf("update_user"), h.User.Update)
		users.DELETE("/:id", middleware.RequireCapability("delete_user"), h.User.Delete)
	}

	courses := api.Group("/courses", middleware.JWT(authSvc))
	{
		courses.GET("", middleware.RequireCapability("read_course"), h.Course.List)
		courses.GET("/available", middleware.RequireCapability("read_course"), h.Course.ListAvailable)
		courses.GET("/:id", middleware.RequireCapability("read_course"), h.Course.Get)
		courses.GET("/:id/students", middleware.RequireCapability("read_student"), h.Course.Students)
		courses.POST("", middleware.RequireCapability("create_course"), h.Course.Create)
		courses.PUT("/:id", middleware.RequireCapability("update_course"), h.Course.Update)
		courses.DELETE("/:id", middleware.RequireCapability("delete_course"), h.Course.Delete)
		courses.POST("/:id/enroll", middleware.RequireCapability("update_student"), h.Course.Enroll)
		courses.POST("/:id/unenroll", middleware.RequireCapability("update_student"), h.Course.Unenroll)
		courses.POST("/transfer", middleware.RequireCapability("update_student"), h.Course.Transfer)
	}

	students := api.Group("/students", middleware.JWT(authSvc))
	{
		students.GET("", middleware.RequireCapability("read_student"), h.Student.List)
		students.GET("/lookup", middleware.RequireCapability("read_student"), h.Student.Lookup)
		students.GET("/:id", middleware.RequireCapability("read_student"), h.Student.Get)
		students.POST("", middleware.RequireCapability("create_student"), h.Student.Create)
		students.PUT("/:id", middleware.RequireCapability("update_student"), h.Student.Update)
		students.DELETE("/:id", middleware.RequireCapability("delete_student"), h.Student.Delete)
	}

	labs := api.Group("/labs", middleware.JWT(authSvc))
	{
		labs.GET("", middleware.RequireCapability("read_labs"), h.Lab.List)
		labs.GET("/:id", middleware.RequireCapability("read_labs"), h.Lab.Get)
		labs.GET("/code/:code", middleware.RequireCapability("read_labs"), h.Lab.GetByCode)
		labs.GET("/code/:code/availability", middleware.RequireCapability("read_labs"), h.Lab.Availability)
		labs.POST("", middleware.RequireCapability("manage_labs"), h.Lab.Create)
		labs.PUT("/:id", middleware.RequireCapability("manage_labs"), h.Lab.Update)
		labs.DELETE("/:id", middleware.RequireCapability("manage_labs"), h.Lab.Delete)
	}

	schedules := api.Group("/schedules", middleware.JWT(authSvc))
	{
		schedules.GET("", middleware.RequireCapability("read_schedule"), h.Schedule.List)
		schedules.GET("/export", middleware.RequireCapability("read_schedule"), h.Schedule.Export)
		schedules.GET("/:id", middleware.RequireCapability("read_schedule"), h.Schedule.Get)
		schedules.POST("/check-conflict", middleware.RequireCapability("read_schedule"), h.Schedule.CheckConflict)
		schedules.POST("", middleware.RequireCapability("create_booking", "create_schedule"), h.Schedule.Create)
		schedules.PUT("/:id", middleware.RequireCapability("manage_bookings"), h.Schedule.Update)
		schedules.PATCH("/:id/status", middleware.RequireCapability("manage_bookings"), h.Schedule.UpdateStatus)
		schedules.DELETE("/:id", middleware.RequireCapability("manage_bookings"), h.Schedule.Delete)
	}
}
