package api

import (
	authUsecase "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/usecase"
	emailUsecase "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/usecase"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase  authUsecase.AuthUsecase
	emailUsecase emailUsecase.EmailUsecase
	syncUsecase  emailUsecase.SyncUsecase
}

func NewHandler(authUc authUsecase.AuthUsecase, emailUc emailUsecase.EmailUsecase, syncUc emailUsecase.SyncUsecase) *Handler {
	return &Handler{
		authUsecase:  authUc,
		emailUsecase: emailUc,
		syncUsecase:  syncUc,
	}
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.emailUsecase, h.syncUsecase)

	return r.Run(addr)
}
