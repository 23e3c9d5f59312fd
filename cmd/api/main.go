package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lumus-labs/lumus-api/api/swagger"
	"github.com/lumus-labs/lumus-api/internal/handler"
	"github.com/lumus-labs/lumus-api/internal/middleware"
	"github.com/lumus-labs/lumus-api/internal/repository"
	"github.com/lumus-labs/lumus-api/internal/router"
	"github.com/lumus-labs/lumus-api/internal/service"
	"github.com/lumus-labs/lumus-api/pkg/cache"
	"github.com/lumus-labs/lumus-api/pkg/config"
	"github.com/lumus-labs/lumus-api/pkg/database"
	"github.com/lumus-labs/lumus-api/pkg/logger"
	corsmiddleware "github.com/lumus-labs/lumus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lumus-labs/lumus-api/pkg/middleware/requestid"
)

// @title Lumus API
// @version 1.0.0
// @description Lab scheduling and enrollment backend
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, schedule cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, cfg.Cache.TTL)
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	labRepo := repository.NewLabRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, metricsSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	labSvc := service.NewLabService(labRepo, scheduleRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, courseRepo, labRepo, cacheRepo, metricsSvc, validate, logr, cfg.Booking)
	exportSvc := service.NewExportService(scheduleRepo, logr, cfg.Export)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.Audit(userRepo, logr))

	router.Register(r, cfg.APIPrefix, router.Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		User:     handler.NewUserHandler(userSvc),
		Course:   handler.NewCourseHandler(courseSvc),
		Student:  handler.NewStudentHandler(studentSvc),
		Lab:      handler.NewLabHandler(labSvc),
		Schedule: handler.NewScheduleHandler(scheduleSvc, exportSvc),
	}, authSvc, metricsSvc, db)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
