package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/academic-core-api/api/swagger"
	"github.com/noah-isme/academic-core-api/internal/handler"
	"github.com/noah-isme/academic-core-api/internal/middleware"
	"github.com/noah-isme/academic-core-api/internal/repository"
	"github.com/noah-isme/academic-core-api/internal/service"
	"github.com/noah-isme/academic-core-api/pkg/cache"
	"github.com/noah-isme/academic-core-api/pkg/config"
	"github.com/noah-isme/academic-core-api/pkg/database"
	"github.com/noah-isme/academic-core-api/pkg/export"
	"github.com/noah-isme/academic-core-api/pkg/jobs"
	"github.com/noah-isme/academic-core-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-core-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-core-api/pkg/middleware/requestid"
)

// @title Academic Core API
// @version 1.0.0
// @description Admission, attendance, grading and academic standing engine
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Standing.CacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, standing cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)

	metricsSvc := service.NewMetricsService()

	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	admissionSvc := service.NewAdmissionService(enrollmentRepo, cfg.Admission.LockTimeout, metricsSvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, courseRepo, cacheRepo, validate, logr)
	gradeSvc := service.NewGradeService(enrollmentRepo, jobs.QueueConfig{
		Workers:    cfg.Recompute.Workers,
		BufferSize: cfg.Recompute.BufferSize,
		MaxRetries: cfg.Recompute.MaxRetries,
		RetryDelay: cfg.Recompute.RetryDelay,
		Logger:     logr,
	}, metricsSvc, validate, logr)
	riskSvc := service.NewRiskService(attendanceRepo, enrollmentRepo, studentRepo, courseRepo, cacheRepo, cfg.Standing.CacheTTL, logr)
	archiveSvc := service.NewArchiveService(archiveRepo, metricsSvc, logr)

	gradeSvc.Start(ctx)
	defer gradeSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	studentHandler := handler.NewStudentHandler(studentSvc, archiveSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(admissionSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(riskSvc, enrollmentRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	}
	standingHandler := handler.NewStandingHandler(riskSvc, exportSvc)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Actor(cfg.Auth.Secret))
	{
		api.POST("/students", studentHandler.Create)
		api.GET("/students", studentHandler.List)
		api.GET("/students/:id", studentHandler.Get)
		api.POST("/students/:id/suspend", studentHandler.Suspend)
		api.POST("/students/:id/deactivate", studentHandler.Deactivate)
		api.POST("/students/:id/reactivate", studentHandler.Reactivate)
		api.DELETE("/students/:id", studentHandler.Remove)
		api.GET("/students/:id/archive", studentHandler.Archive)

		api.POST("/courses", courseHandler.Create)
		api.GET("/courses", courseHandler.List)
		api.GET("/courses/:code", courseHandler.Get)

		api.POST("/enrollments", enrollmentHandler.Create)
		api.GET("/enrollments", enrollmentHandler.List)
		api.GET("/enrollments/:id", enrollmentHandler.Get)
		api.POST("/enrollments/:id/withdraw", enrollmentHandler.Withdraw)
		api.PUT("/enrollments/:id/grade", gradeHandler.SetGrade)
		api.POST("/enrollments/:id/recompute", gradeHandler.Recompute)

		api.POST("/grades/recompute-cycles", gradeHandler.RunCycle)
		api.GET("/grades/recompute-cycles/:id", gradeHandler.CycleStatus)

		api.POST("/attendance", attendanceHandler.Mark)
		api.GET("/attendance", attendanceHandler.History)
		api.GET("/attendance/stats", attendanceHandler.Stats)

		api.GET("/standing", standingHandler.Standing)
		api.GET("/standing/export/csv", standingHandler.ExportCSV)
		api.GET("/standing/export/pdf", standingHandler.ExportPDF)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
