package api

import (
	"net/http"

	"github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/delivery"
	authUsecase "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/usecase"
	emailDelivery "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/delivery"
	emailUsecase "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/usecase"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUc authUsecase.AuthUsecase, emailUc emailUsecase.EmailUsecase, syncUc emailUsecase.SyncUsecase) {
	authHandler := delivery.NewAuthHandler(authUc)
	emailHandler := emailDelivery.NewEmailHandler(emailUc, syncUc)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
				"sync":   syncUc.Stats(),
			})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/google", authHandler.GoogleSignIn)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(authUc), authHandler.Me)
		}

		// Email routes (protected, except the push webhook)
		emails := api.Group("/emails")
		{
			// Pub/Sub push deliveries carry no user token
			emails.POST("/webhooks/gmail", emailHandler.HandleGmailWebhook)

			protected := emails.Group("")
			protected.Use(delivery.AuthMiddleware(authUc))
			{
				protected.GET("", emailHandler.ListEmails)
				protected.GET("/search", emailHandler.SearchEmails)
				protected.GET("/thread/:threadId", emailHandler.GetThread)
				protected.GET("/attachments/:attachmentId", emailHandler.DownloadAttachment)
				protected.POST("/send", emailHandler.SendEmail)
				protected.GET("/:id", emailHandler.GetEmail)
			}
		}
	}
}
