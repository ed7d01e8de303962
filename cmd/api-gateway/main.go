package main

import (
	"context"
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

	_ "github.com/noah-isme/nemsu-talks-api/api/swagger"
	"github.com/noah-isme/nemsu-talks-api/internal/handler"
	"github.com/noah-isme/nemsu-talks-api/internal/middleware"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
	"github.com/noah-isme/nemsu-talks-api/internal/repository"
	"github.com/noah-isme/nemsu-talks-api/internal/service"
	"github.com/noah-isme/nemsu-talks-api/pkg/ai"
	"github.com/noah-isme/nemsu-talks-api/pkg/cache"
	"github.com/noah-isme/nemsu-talks-api/pkg/config"
	"github.com/noah-isme/nemsu-talks-api/pkg/database"
	"github.com/noah-isme/nemsu-talks-api/pkg/jobs"
	"github.com/noah-isme/nemsu-talks-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/nemsu-talks-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/nemsu-talks-api/pkg/middleware/requestid"
	"github.com/noah-isme/nemsu-talks-api/pkg/storage"
)

// @title NEMSUTalks API
// @version 1.0.0
// @description Campus sentiment and feedback platform for NEMSU students
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	sentimentRepo := repository.NewSentimentRepository(db)
	postRepo := repository.NewPostRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	chatRepo := repository.NewChatRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Services.
	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, true)
	}

	notificationService := service.NewNotificationService(notificationRepo, logr)
	settingsService := service.NewSettingsService(settingsRepo, []service.DataWiper{
		sentimentRepo, postRepo, announcementRepo, notificationRepo,
	}, validate, logr)

	authService := service.NewAuthService(userRepo, settingsService, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "nemsu-talks-api",
		Audience:           []string{"nemsu-talks"},
		AllowedEmailDomain: cfg.Auth.AllowedEmailDomain,
	})

	sentimentService := service.NewSentimentService(sentimentRepo, notificationService, validate, logr)
	feedService := service.NewFeedService(postRepo, notificationService, validate, logr)
	announcementService := service.NewAnnouncementService(announcementRepo, notificationService, validate, logr)
	dashboardService := service.NewDashboardService(sentimentService, sentimentRepo, notificationRepo, cacheService, cfg.Dashboard.CacheTTL, logr)

	aiClient := ai.NewClient(ai.Config{
		Endpoint:      cfg.AI.Endpoint,
		APIKey:        cfg.AI.APIKey,
		Timeout:       cfg.AI.Timeout,
		StreamTimeout: cfg.AI.StreamTimeout,
	})
	aiService := service.NewAIService(aiClient, chatRepo, cfg.AI.AnalysisModel, cfg.AI.ChatModel, validate, logr)

	if err := authService.SeedAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminFullName); err != nil {
		logr.Sugar().Warnw("failed to seed admin account", "error", err)
	}

	// Report pipeline.
	var reportService *service.ReportService
	var reportScheduler *service.ReportScheduler
	if cfg.Reports.Enabled {
		exportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportService := service.NewExportService(sentimentRepo, exportStorage, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, nil, nil)

		worker := service.NewReportWorker(reportRepo, exportService, cfg.Reports.WorkerRetries, logr)
		queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		reportService = service.NewReportService(reportRepo, queue, exportService, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportService.RecoverPendingJobs(ctx)
		reportService.StartCleanup(ctx)

		reportScheduler = service.NewReportScheduler(reportService, notificationService, cfg.Reports.WeeklySchedule, logr)
		if err := reportScheduler.Start(ctx); err != nil {
			logr.Sugar().Warnw("failed to start weekly report schedule", "error", err)
		} else {
			defer reportScheduler.Stop()
		}
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	sentimentHandler := handler.NewSentimentHandler(sentimentService, metricsService)
	feedHandler := handler.NewFeedHandler(feedService)
	announcementHandler := handler.NewAnnouncementHandler(announcementService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	aiHandler := handler.NewAIHandler(aiService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
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

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authService), authHandler.ChangePassword)
		auth.PATCH("/profile", middleware.JWT(authService), authHandler.UpdateProfile)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	sentiments := api.Group("/sentiments")
	{
		// Submission stays anonymous; claims are attached when present so
		// abuse reports can be traced, but no session is required.
		sentiments.POST("", middleware.OptionalJWT(authService), sentimentHandler.Create)
		sentiments.GET("", middleware.JWT(authService), adminOnly, sentimentHandler.List)
		sentiments.GET("/stats", middleware.JWT(authService), adminOnly, sentimentHandler.Stats)
		sentiments.GET("/trend", middleware.JWT(authService), adminOnly, sentimentHandler.Trend)
		sentiments.GET("/:id", middleware.JWT(authService), adminOnly, sentimentHandler.Get)
		sentiments.PATCH("/:id/status", middleware.JWT(authService), adminOnly, middleware.Audit(userRepo, "update_status", "sentiment"), sentimentHandler.UpdateStatus)
	}

	feed := api.Group("/feed", middleware.JWT(authService))
	{
		feed.GET("/posts", feedHandler.List)
		feed.POST("/posts", feedHandler.Create)
		feed.GET("/posts/:id", feedHandler.Get)
		feed.POST("/posts/:id/like", feedHandler.ToggleLike)
		feed.GET("/posts/:id/liked", feedHandler.Liked)
		feed.POST("/posts/:id/comments", feedHandler.AddComment)
		feed.DELETE("/posts/:id/comments/:commentId", feedHandler.DeleteComment)
	}

	announcements := api.Group("/announcements", middleware.JWT(authService))
	{
		announcements.GET("", announcementHandler.List)
		announcements.GET("/unread-count", announcementHandler.UnreadCount)
		announcements.POST("", adminOnly, middleware.Audit(userRepo, "create", "announcement"), announcementHandler.Create)
		announcements.POST("/:id/publish", adminOnly, announcementHandler.Publish)
		announcements.POST("/:id/read", announcementHandler.MarkAsRead)
		announcements.DELETE("/:id", adminOnly, announcementHandler.Delete)
	}

	notifications := api.Group("/notifications", middleware.JWT(authService))
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/read-all", notificationHandler.MarkAllAsRead)
		notifications.POST("/:id/read", notificationHandler.MarkAsRead)
		notifications.DELETE("/:id", notificationHandler.Delete)
		notifications.DELETE("", notificationHandler.ClearAll)
	}

	settings := api.Group("/settings", middleware.JWT(authService), adminOnly)
	{
		settings.GET("", settingsHandler.Get)
		settings.PATCH("/general", settingsHandler.UpdateGeneral)
		settings.PATCH("/moderation", settingsHandler.UpdateModeration)
		settings.PATCH("/notifications", settingsHandler.UpdateNotification)
		settings.PATCH("/appearance", settingsHandler.UpdateAppearance)
		settings.POST("/save", settingsHandler.SaveAll)
		settings.POST("/reset", settingsHandler.Reset)
		settings.GET("/backups", settingsHandler.ListBackups)
		settings.POST("/backups", settingsHandler.CreateBackup)
		settings.POST("/backups/:id/restore", settingsHandler.RestoreBackup)
		settings.DELETE("/backups/:id", settingsHandler.DeleteBackup)
		settings.GET("/export", settingsHandler.Export)
		settings.POST("/import", settingsHandler.Import)
		settings.POST("/clear-data", middleware.Audit(userRepo, "clear_data", "settings"), settingsHandler.ClearData)
	}

	aiRoutes := api.Group("/ai", middleware.JWT(authService))
	{
		aiRoutes.POST("/analyze", aiHandler.Analyze)
		aiRoutes.POST("/chat", aiHandler.Chat)
		aiRoutes.GET("/chat/history", aiHandler.History)
		aiRoutes.DELETE("/chat/history", aiHandler.ClearHistory)
	}

	api.GET("/dashboard", middleware.JWT(authService), adminOnly, dashboardHandler.Overview)

	if reportService != nil {
		reportHandler := handler.NewReportHandler(reportService, logr)
		reports := api.Group("/reports", middleware.JWT(authService), adminOnly)
		{
			reports.POST("/generate", reportHandler.GenerateReport)
			reports.GET("/status/:id", reportHandler.ReportStatus)
		}
		// Token-authenticated download link; no JWT so the browser can follow it.
		api.GET("/export/:token", reportHandler.DownloadReport)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
