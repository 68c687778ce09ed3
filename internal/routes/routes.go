package routes

import (
	"context"
	"fmt"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/vhsilvat/MetaMorfose/internal/config"
	"github.com/vhsilvat/MetaMorfose/internal/handlers"
	"github.com/vhsilvat/MetaMorfose/internal/llm"
	"github.com/vhsilvat/MetaMorfose/internal/mail"
	"github.com/vhsilvat/MetaMorfose/internal/middleware"
	"github.com/vhsilvat/MetaMorfose/internal/repository"
	"github.com/vhsilvat/MetaMorfose/internal/services"
)

// RegisterRoutes wires repositories, services and handlers onto the app.
// It returns the reminder dispatcher for the caller to run.
func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, log *zap.Logger) (*services.ReminderService, error) {
	userRepo := repository.NewUserRepository(db)
	intakeRepo := repository.NewIntakeRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	onboardingRepo := repository.NewOnboardingRepository(db)
	planRepo := repository.NewPlanRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	metricsRepo := repository.NewMetricsRepository(db)
	chatRepo := repository.NewChatRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	generator, err := llm.NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("init text generator: %w", err)
	}

	identityService := services.NewIdentityService(userRepo, progressRepo, onboardingRepo)
	onboardingService := services.NewOnboardingService(onboardingRepo, log)
	plannerService := services.NewPlannerService(userRepo, intakeRepo, planRepo, onboardingService, generator, log)
	progressService := services.NewProgressService(userRepo, progressRepo, onboardingService, plannerService, log)
	intakeService := services.NewIntakeService(intakeRepo, metricsRepo, progressService)
	planService := services.NewPlanService(planRepo, feedbackRepo)
	chatService := services.NewChatService(chatRepo, progressRepo, userRepo, intakeRepo, generator, cfg.GeminiModel, log)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, userRepo, progressRepo, log)
	reminderService := services.NewReminderService(
		onboardingRepo, userRepo,
		mail.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom),
		cfg.ReminderInterval, log,
	)

	intakeHandler := handlers.NewIntakeHandler(intakeService)
	planHandler := handlers.NewPlanHandler(planService, plannerService)
	profileHandler := handlers.NewProfileHandler(identityService, onboardingService)
	chatHandler := handlers.NewChatHandler(chatService, identityService, cfg.JWTSecret)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	webhookHandler := handlers.NewWebhookHandler(
		identityService, subscriptionService,
		cfg.IdentityWebhookSecret, cfg.StripeWebhookSecret, log,
	)

	api := app.Group("/api")

	webhooks := api.Group("/webhooks")
	webhooks.Post("/identity", webhookHandler.HandleIdentity)
	webhooks.Post("/stripe", webhookHandler.HandleStripe)

	protected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret, identityService))

	protected.Get("/me", profileHandler.GetProfile)
	protected.Get("/subscription", subscriptionHandler.GetSubscription)

	anamnese := protected.Group("/anamnese")
	anamnese.Post("/steps/:step", intakeHandler.SubmitStep)
	anamnese.Get("/steps", intakeHandler.GetRecords)
	anamnese.Get("/progress", intakeHandler.GetProgress)

	plans := protected.Group("/plans")
	plans.Get("/current", planHandler.GetCurrent)
	plans.Get("/history", planHandler.GetHistory)
	plans.Post("/generate", planHandler.Generate)
	plans.Post("/:id/complete", planHandler.MarkCompleted)
	plans.Post("/:id/feedback", planHandler.SubmitFeedback)
	plans.Get("/:id/feedback", planHandler.GetFeedback)

	chat := protected.Group("/chat")
	chat.Post("", chatHandler.Ask)
	chat.Get("/history", chatHandler.History)

	api.Use("/v1/ws/chat", chatHandler.WebSocketAuth)
	api.Get("/v1/ws/chat", websocket.New(chatHandler.HandleWebSocket))

	return reminderService, nil
}
