package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/prepstack/prepstack-api/internal/config"
	"github.com/prepstack/prepstack-api/internal/database"
	"github.com/prepstack/prepstack-api/internal/handler"
	"github.com/prepstack/prepstack-api/internal/middleware"
	"github.com/prepstack/prepstack-api/internal/models"
	"github.com/prepstack/prepstack-api/internal/repository"
	"github.com/prepstack/prepstack-api/internal/router"
	"github.com/prepstack/prepstack-api/internal/service"
	"github.com/prepstack/prepstack-api/pkg/judge"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Question{}, &models.AnswerOption{}, &models.TestCase{}, &models.Submission{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	judgeClient, err := judge.NewClient(judge.Config{
		BaseURL: cfg.JudgeURL,
		APIKey:  cfg.JudgeAPIKey,
		Timeout: cfg.JudgeTimeout,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create judge client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	questionRepo := repository.NewQuestionRepository(db)
	testCaseRepo := repository.NewTestCaseRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	quota := service.NewRedisDailyQuota(redisClient, submissionRepo, cfg.MaxSubmissionsPerDay, logger)
	gradingService := service.NewGradingService(questionRepo, submissionRepo, validate, logger)
	codeService := service.NewCodeExecutionService(questionRepo, testCaseRepo, submissionRepo, judgeClient, quota, validate, logger, service.CodeExecutionConfig{
		MaxCodeBytes:    cfg.MaxCodeBytes,
		PollMaxAttempts: cfg.PollMaxAttempts,
		PollDelay:       cfg.PollDelay,
	})

	gradingHandler := handler.NewGradingHandler(gradingService, validate, logger)
	codeHandler := handler.NewCodeSubmissionHandler(codeService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		GradingHandler:        gradingHandler,
		CodeSubmissionHandler: codeHandler,
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
		DB:                    db,
		Redis:                 redisClient,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
