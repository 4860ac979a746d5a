package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/atlasnet/linetrack-api/api/swagger"
	"github.com/atlasnet/linetrack-api/internal/handler"
	"github.com/atlasnet/linetrack-api/internal/middleware"
	"github.com/atlasnet/linetrack-api/internal/repository"
	"github.com/atlasnet/linetrack-api/internal/service"
	"github.com/atlasnet/linetrack-api/pkg/cache"
	"github.com/atlasnet/linetrack-api/pkg/config"
	"github.com/atlasnet/linetrack-api/pkg/database"
	"github.com/atlasnet/linetrack-api/pkg/logger"
	corsmiddleware "github.com/atlasnet/linetrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/atlasnet/linetrack-api/pkg/middleware/requestid"
)

// @title LineTrack API
// @version 1.0.0
// @description Line registry, fault ticketing and provisioning request coordination
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var cacheRepo *repository.CacheRepository
	if cfg.Sync.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, snapshot cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	lineRepo := repository.NewLineRepository(db)
	faultRepo := repository.NewFaultRepository(db)
	requestRepo := repository.NewLineRequestRepository(db)
	typeRepo := repository.NewLineTypeRepository(db)
	subsidiaryRepo := repository.NewSubsidiaryRepository(db)
	userRepo := repository.NewUserRepository(db)

	var lineOpts []service.LineServiceOption
	var faultOpts []service.FaultServiceOption
	var requestOpts []service.LineRequestServiceOption
	if cacheRepo != nil {
		lineOpts = append(lineOpts,
			service.WithLineSnapshotCache(cacheRepo, cfg.Sync.SnapshotTTL),
			service.WithLineCacheMetrics(metricsSvc))
		faultOpts = append(faultOpts,
			service.WithFaultSnapshotCache(cacheRepo, cfg.Sync.SnapshotTTL),
			service.WithFaultCacheMetrics(metricsSvc))
		requestOpts = append(requestOpts,
			service.WithLineRequestSnapshotCache(cacheRepo, cfg.Sync.SnapshotTTL))
	}

	faultSvc := service.NewFaultService(faultRepo, lineRepo, subsidiaryRepo, userRepo, validate, logr, faultOpts...)
	lineSvc := service.NewLineService(lineRepo, faultRepo, typeRepo, subsidiaryRepo, validate, logr, lineOpts...)
	requestSvc := service.NewLineRequestService(requestRepo, typeRepo, subsidiaryRepo, userRepo, validate, logr, requestOpts...)
	catalogSvc := service.NewCatalogService(typeRepo, subsidiaryRepo, userRepo, validate, logr)

	lineHandler := handler.NewLineHandler(lineSvc)
	faultHandler := handler.NewFaultHandler(faultSvc)
	requestHandler := handler.NewLineRequestHandler(requestSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	maintenanceHandler := handler.NewMaintenanceHandler(faultSvc, metricsSvc, cfg.Stats.Enabled)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		lines := api.Group("/lines")
		{
			lines.GET("", lineHandler.List)
			lines.POST("", lineHandler.Create)
			lines.GET("/:id", lineHandler.Get)
			lines.PATCH("/:id", lineHandler.Update)
			lines.DELETE("/:id", lineHandler.Delete)
			lines.PATCH("/:id/status", lineHandler.SetStatus)
			lines.PATCH("/:id/confirm-working", lineHandler.ConfirmWorking)
			lines.PATCH("/:id/toggle-fault-flow", lineHandler.ToggleFaultFlow)
			lines.GET("/:id/faults", faultHandler.ListByLine)
		}

		faults := api.Group("/faults")
		{
			faults.GET("", faultHandler.List)
			faults.POST("", faultHandler.Declare)
			faults.GET("/:id", faultHandler.Get)
			faults.PATCH("/:id/assign", faultHandler.Assign)
			faults.PATCH("/:id/resolve", faultHandler.Resolve)
			faults.PATCH("/:id/feedback", faultHandler.UpdateFeedback)
		}

		requests := api.Group("/line-requests")
		{
			requests.GET("", requestHandler.List)
			requests.POST("", requestHandler.Create)
			requests.GET("/:id", requestHandler.Get)
			requests.DELETE("/:id", requestHandler.Delete)
			requests.POST("/:id/approve", requestHandler.Approve)
			requests.POST("/:id/reject", requestHandler.Reject)
		}

		types := api.Group("/line-types")
		{
			types.GET("", catalogHandler.ListLineTypes)
			types.POST("", catalogHandler.CreateLineType)
			types.PATCH("/:id", catalogHandler.UpdateLineType)
			types.DELETE("/:id", catalogHandler.DeleteLineType)
		}

		subsidiaries := api.Group("/subsidiaries")
		{
			subsidiaries.GET("", catalogHandler.ListSubsidiaries)
			subsidiaries.POST("", catalogHandler.CreateSubsidiary)
			subsidiaries.GET("/:id", catalogHandler.GetSubsidiary)
			subsidiaries.GET("/:id/lines", lineHandler.ListBySubsidiary)
			subsidiaries.GET("/:id/faults", faultHandler.ListBySubsidiary)
		}

		users := api.Group("/users")
		{
			users.GET("", catalogHandler.ListUsers)
			users.GET("/:id", catalogHandler.GetUser)
		}

		maintenance := api.Group("/maintenance")
		{
			maintenance.GET("/stats", maintenanceHandler.FaultStats)
			maintenance.GET("/metrics", maintenanceHandler.SystemMetrics)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
