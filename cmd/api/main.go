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

	_ "github.com/go-reviser/reviser-api/api/swagger"
	"github.com/go-reviser/reviser-api/internal/handler"
	"github.com/go-reviser/reviser-api/internal/middleware"
	"github.com/go-reviser/reviser-api/internal/repository"
	"github.com/go-reviser/reviser-api/internal/service"
	"github.com/go-reviser/reviser-api/pkg/cache"
	"github.com/go-reviser/reviser-api/pkg/config"
	"github.com/go-reviser/reviser-api/pkg/database"
	"github.com/go-reviser/reviser-api/pkg/logger"
	"github.com/go-reviser/reviser-api/pkg/mailer"
	corsmiddleware "github.com/go-reviser/reviser-api/pkg/middleware/cors"
	reqidmiddleware "github.com/go-reviser/reviser-api/pkg/middleware/requestid"
)

// @title GO Reviser API
// @version 1.0.0
// @description GATE CSE study tracker: syllabus, question bank and progress
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, progress summaries will not be cached", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	syllabusRepo := repository.NewSyllabusRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	subCategoryRepo := repository.NewSubCategoryRepository(db)
	tagRepo := repository.NewTagRepository(db)
	examBranchRepo := repository.NewExamBranchRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	questionProgressRepo := repository.NewQuestionProgressRepository(db)
	topicProgressRepo := repository.NewTopicProgressRepository(db)

	// Services.
	mailService := service.NewMailService(mailer.New(cfg.SMTP), service.MailQueueConfig{
		Workers:    cfg.SMTP.Workers,
		MaxRetries: cfg.SMTP.Retries,
		SupportBox: cfg.SMTP.From,
	}, logr)
	mailService.Start(ctx)
	defer mailService.Stop()

	authService := service.NewAuthService(userRepo, mailService, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "go-reviser",
	})
	userService := service.NewUserService(userRepo, mailService, validate, logr)
	syllabusService := service.NewSyllabusService(syllabusRepo, categoryRepo, validate, logr)
	categoryService := service.NewCategoryService(categoryRepo, syllabusRepo, validate, logr)
	subCategoryService := service.NewSubCategoryService(subCategoryRepo, categoryRepo, validate, logr)
	tagService := service.NewTagService(tagRepo, validate, logr)
	examBranchService := service.NewExamBranchService(examBranchRepo, validate, logr)
	questionService := service.NewQuestionService(questionRepo, tagRepo, examBranchRepo, validate, logr)
	importService := service.NewQuestionImportService(categoryRepo, syllabusRepo, subCategoryRepo, tagRepo, examBranchRepo, questionRepo, service.ImportConfig{
		MaxBatchSize:       cfg.Import.MaxBatchSize,
		QuestionNumberBase: cfg.Import.QuestionNumberBase,
	}, logr)
	questionProgressService := service.NewQuestionProgressService(questionProgressRepo, questionRepo, redisClient, cfg.Progress.SummaryCacheTTL, validate, logr)
	topicProgressService := service.NewTopicProgressService(topicProgressRepo, syllabusRepo, validate, logr)

	var metricsService *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsService = service.NewMetricsService()
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	syllabusHandler := handler.NewSyllabusHandler(syllabusService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	subCategoryHandler := handler.NewSubCategoryHandler(subCategoryService)
	tagHandler := handler.NewTagHandler(tagService)
	examBranchHandler := handler.NewExamBranchHandler(examBranchService)
	questionHandler := handler.NewQuestionHandler(questionService)
	importHandler := handler.NewQuestionImportHandler(importService, metricsService)
	progressHandler := handler.NewProgressHandler(questionProgressService, topicProgressService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsService != nil {
		r.Use(middleware.Metrics(metricsService))
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if metricsService != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
	}

	api.POST("/contact", userHandler.Contact)

	// Unauthenticated read used by the landing pages.
	api.GET("/public/sub-categories", subCategoryHandler.List)

	authed := api.Group("", middleware.JWT(authService))
	{
		authed.GET("/users/me", userHandler.Me)
		authed.PUT("/users/me", userHandler.UpdateMe)

		authed.GET("/syllabus", syllabusHandler.Tree)
		authed.GET("/subjects", syllabusHandler.ListSubjects)
		authed.GET("/subjects/:id", syllabusHandler.GetSubject)
		authed.GET("/subjects/:id/modules", syllabusHandler.ListModules)
		authed.GET("/modules/:id/topics", syllabusHandler.ListTopics)
		authed.GET("/topics/:id", syllabusHandler.GetTopic)

		authed.GET("/question-categories", categoryHandler.List)
		authed.GET("/question-categories/:id", categoryHandler.Get)
		authed.GET("/sub-categories", subCategoryHandler.List)
		authed.GET("/sub-categories/:id", subCategoryHandler.Get)
		authed.GET("/question-tags", tagHandler.List)
		authed.GET("/question-tags/:id", tagHandler.Get)
		authed.GET("/exam-branches", examBranchHandler.List)
		authed.GET("/exam-branches/:id", examBranchHandler.Get)

		authed.GET("/questions", questionHandler.List)
		authed.GET("/questions/counts/subjects", questionHandler.CountsBySubject)
		authed.GET("/questions/counts/categories", questionHandler.CountsByCategory)
		authed.GET("/questions/:id", questionHandler.Get)

		authed.PUT("/progress/questions", progressHandler.UpsertQuestionProgress)
		authed.GET("/progress/questions", progressHandler.ListQuestionProgress)
		authed.GET("/progress/questions/summary", progressHandler.QuestionProgressSummary)
		authed.POST("/progress/questions/bulk-check", progressHandler.BulkQuestionProgress)
		authed.GET("/progress/questions/:id", progressHandler.GetQuestionProgress)

		authed.PUT("/progress/topics", progressHandler.UpsertTopicProgress)
		authed.GET("/progress/topics", progressHandler.ListTopicProgress)
		authed.GET("/progress/topics/summary", progressHandler.TopicProgressSummary)
		authed.PUT("/progress/topics/bulk", progressHandler.BulkUpdateTopicProgress)
		authed.POST("/progress/topics/bulk-check", progressHandler.BulkCheckTopicProgress)
		authed.GET("/progress/topics/:id", progressHandler.GetTopicProgress)
		authed.DELETE("/progress/topics/:id", progressHandler.DeleteTopicProgress)
	}

	admin := api.Group("", middleware.JWT(authService), middleware.AdminOnly(userRepo))
	{
		admin.GET("/users", userHandler.List)
		admin.PUT("/users/:id/subscription", userHandler.SetSubscription)

		taxonomyAudit := middleware.Audit(userRepo, "TAXONOMY_CHANGE", "taxonomy")
		admin.POST("/subjects", taxonomyAudit, syllabusHandler.CreateSubject)
		admin.PUT("/subjects", taxonomyAudit, syllabusHandler.ReplaceSubjects)
		admin.PUT("/subjects/:id", taxonomyAudit, syllabusHandler.UpdateSubject)
		admin.DELETE("/subjects/:id", taxonomyAudit, syllabusHandler.DeleteSubject)
		admin.POST("/modules", taxonomyAudit, syllabusHandler.CreateModule)
		admin.PUT("/modules/:id", taxonomyAudit, syllabusHandler.UpdateModule)
		admin.DELETE("/modules/:id", taxonomyAudit, syllabusHandler.DeleteModule)
		admin.POST("/topics", taxonomyAudit, syllabusHandler.CreateTopic)
		admin.POST("/topics/bulk", taxonomyAudit, syllabusHandler.BulkCreateTopics)
		admin.PUT("/topics/:id", taxonomyAudit, syllabusHandler.UpdateTopic)
		admin.DELETE("/topics/:id", taxonomyAudit, syllabusHandler.DeleteTopic)

		admin.POST("/question-categories", taxonomyAudit, categoryHandler.Create)
		admin.POST("/question-categories/bulk", taxonomyAudit, categoryHandler.BulkCreate)
		admin.POST("/question-categories/bulk-delete", taxonomyAudit, categoryHandler.BulkDelete)
		admin.PUT("/question-categories/:id", taxonomyAudit, categoryHandler.Update)
		admin.DELETE("/question-categories/:id", taxonomyAudit, categoryHandler.Delete)
		admin.POST("/sub-categories", taxonomyAudit, subCategoryHandler.Create)
		admin.POST("/sub-categories/bulk", taxonomyAudit, subCategoryHandler.BulkCreate)
		admin.POST("/sub-categories/bulk-delete", taxonomyAudit, subCategoryHandler.BulkDelete)
		admin.PUT("/sub-categories/:id", taxonomyAudit, subCategoryHandler.Update)
		admin.DELETE("/sub-categories/:id", taxonomyAudit, subCategoryHandler.Delete)
		admin.POST("/question-tags", taxonomyAudit, tagHandler.Create)
		admin.PUT("/question-tags/:id", taxonomyAudit, tagHandler.Update)
		admin.DELETE("/question-tags/:id", taxonomyAudit, tagHandler.Delete)
		admin.POST("/exam-branches", taxonomyAudit, examBranchHandler.Create)
		admin.PUT("/exam-branches/:id", taxonomyAudit, examBranchHandler.Update)
		admin.POST("/exam-branches/:id/tag-names", taxonomyAudit, examBranchHandler.AddTagNames)
		admin.POST("/exam-branches/:id/tag-names/remove", taxonomyAudit, examBranchHandler.RemoveTagName)
		admin.PUT("/exam-branches/:id/tag-names", taxonomyAudit, examBranchHandler.UpdateTagName)
		admin.DELETE("/exam-branches/:id", taxonomyAudit, examBranchHandler.Delete)

		importAudit := middleware.Audit(userRepo, "QUESTION_IMPORT", "questions")
		admin.POST("/questions", importAudit, importHandler.Create)
		admin.POST("/questions/create-bulk", importAudit, importHandler.BulkCreate)
		admin.PUT("/questions/:id", questionHandler.Update)
		admin.DELETE("/questions/:id", questionHandler.Delete)
		admin.POST("/questions/renormalize", questionHandler.RenormalizeContent)
		admin.GET("/questions/export", questionHandler.Export)
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
