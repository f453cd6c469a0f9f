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

	"github.com/bcgov/digital-marketplace-sub005/internal/config"
	"github.com/bcgov/digital-marketplace-sub005/internal/database"
	"github.com/bcgov/digital-marketplace-sub005/internal/handler"
	"github.com/bcgov/digital-marketplace-sub005/internal/middleware"
	"github.com/bcgov/digital-marketplace-sub005/internal/models"
	"github.com/bcgov/digital-marketplace-sub005/internal/repository"
	"github.com/bcgov/digital-marketplace-sub005/internal/router"
	"github.com/bcgov/digital-marketplace-sub005/internal/service"
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

	if err := db.AutoMigrate(
		&models.Opportunity{},
		&models.OpportunityVersion{},
		&models.Question{},
		&models.EvaluationPanelMember{},
		&models.OpportunityStatusRecord{},
		&models.Proposal{},
		&models.QuestionResponse{},
		&models.ProposalStatusRecord{},
		&models.QuestionEvaluation{},
		&models.EvaluationStatusRecord{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	validate := validator.New(validator.WithRequiredStructEnabled())

	evaluationRepo := repository.NewEvaluationRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	proposalRepo := repository.NewProposalRepository(db)

	reportService := service.NewReportService(proposalRepo, opportunityRepo, redisClient, cfg.ReportCacheTTL, logger)
	evaluationService := service.NewEvaluationService(evaluationRepo, opportunityRepo, proposalRepo, validate, reportService, logger)
	opportunityService := service.NewOpportunityService(opportunityRepo, proposalRepo, validate, logger)
	proposalService := service.NewProposalService(proposalRepo, opportunityRepo, validate, logger)

	opportunityHandler := handler.NewOpportunityHandler(opportunityService, reportService, logger)
	proposalHandler := handler.NewProposalHandler(proposalService, logger)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		OpportunityHandler: opportunityHandler,
		ProposalHandler:    proposalHandler,
		EvaluationHandler:  evaluationHandler,
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
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
