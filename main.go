package main

import (
	"context"
	"log"
	"strings"

	api "github.com/Email-Client-AI/Email-Client-AI-Backend/cmd/api"
	authdomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/domain"
	authRepo "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/repository"
	authUsecase "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/usecase"
	emaildomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/domain"
	emailRepo "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/repository"
	emailUsecase "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/usecase"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/internal/notification"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/pkg/config"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/pkg/database"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/pkg/gmail"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&authdomain.User{}, &authdomain.UserSession{}, &emaildomain.Email{}, &emaildomain.Attachment{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	sessionRepo := authRepo.NewSessionRepository(db)
	emailRepository := emailRepo.NewEmailRepository(db)

	// Initialize Gmail service
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)

	// Initialize use cases (dependency injection)
	syncUsecaseInstance := emailUsecase.NewSyncUsecase(emailRepository, userRepo, sessionRepo, gmailService, cfg.GooglePubSubTopic, cfg.InitialSyncLimit)
	emailUsecaseInstance := emailUsecase.NewEmailUsecase(emailRepository, sessionRepo, gmailService)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, sessionRepo, cfg)

	// Sync the mailbox in the background after every Google sign-in
	authUsecaseInstance.SetEmailSyncCallback(syncUsecaseInstance.SyncInitialEmails)

	// Initialize Notification Service (Pub/Sub pull mode)
	// Only start if project ID is configured; push deployments use the
	// webhook endpoint instead.
	if cfg.GoogleProjectID != "" {
		// Extract short topic name from full resource name if necessary
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}
		if topicName == "" {
			topicName = "gmail-updates"
		}

		notifService, err := notification.NewService(cfg.GoogleProjectID, topicName, syncUsecaseInstance, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[PubSub] Failed to initialize notification service: %v", err)
		} else {
			go notifService.Start(context.Background())
		}
	} else {
		log.Printf("[PubSub] GoogleProjectID not configured, pull subscriber disabled")
	}

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, emailUsecaseInstance, syncUsecaseInstance)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
