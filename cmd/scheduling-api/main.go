package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campus-suite/scheduling-api/api/swagger"
	"github.com/campus-suite/scheduling-api/internal/handler"
	"github.com/campus-suite/scheduling-api/internal/middleware"
	"github.com/campus-suite/scheduling-api/internal/repository"
	"github.com/campus-suite/scheduling-api/internal/service"
	"github.com/campus-suite/scheduling-api/pkg/cache"
	"github.com/campus-suite/scheduling-api/pkg/config"
	"github.com/campus-suite/scheduling-api/pkg/database"
	"github.com/campus-suite/scheduling-api/pkg/logger"
	corsmiddleware "github.com/campus-suite/scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-suite/scheduling-api/pkg/middleware/requestid"
)

// @title Campus Scheduling API
// @version 1.0.0
// @description Class-schedule conflict detection and teaching-assignment reconciliation
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	scheduleRepo := repository.NewScheduleRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	historyRepo := repository.NewHistoryRepository(redisClient, logr)

	assignmentSvc := service.NewAssignmentService(scheduleRepo, instructorRepo, historyRepo, cfg.Term, cfg.Assignments, logr, metrics)
	scheduleSvc := service.NewScheduleService(scheduleRepo, blockRepo, service.NewConflictDetector(), assignmentSvc, validate, logr, metrics)

	ctx := context.Background()
	if err := assignmentSvc.Start(ctx); err != nil {
		logr.Sugar().Fatalw("failed to start assignment service", "error", err)
	}
	defer assignmentSvc.Stop()

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	blockHandler := handler.NewBlockHandler(blockRepo)
	instructorHandler := handler.NewInstructorHandler(instructorRepo)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/schedules", scheduleHandler.List)
		api.POST("/schedules", scheduleHandler.Create)
		api.POST("/schedules/validate", scheduleHandler.Validate)
		api.PUT("/schedules/:id", scheduleHandler.Update)
		api.DELETE("/schedules/:id", scheduleHandler.Delete)

		api.GET("/blocks", blockHandler.List)
		api.GET("/blocks/:id", blockHandler.Get)
		api.GET("/blocks/:id/schedules", scheduleHandler.ListByBlock)

		api.GET("/instructors", instructorHandler.List)
		api.GET("/instructors/:id", instructorHandler.Get)
		api.GET("/instructors/:id/schedules", scheduleHandler.ListByInstructor)

		api.GET("/assignments", assignmentHandler.List)
		api.POST("/assignments/rebuild", assignmentHandler.Rebuild)
		api.GET("/assignments/export", assignmentHandler.Export)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
