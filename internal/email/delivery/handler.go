package delivery

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	emaildomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/domain"
	emaildto "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/dto"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/repository"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/usecase"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	emailUsecase usecase.EmailUsecase
	syncUsecase  usecase.SyncUsecase
}

func NewEmailHandler(emailUsecase usecase.EmailUsecase, syncUsecase usecase.SyncUsecase) *EmailHandler {
	return &EmailHandler{
		emailUsecase: emailUsecase,
		syncUsecase:  syncUsecase,
	}
}

// ListEmails handles GET /api/emails?label=INBOX&page=1&size=20
func (h *EmailHandler) ListEmails(c *gin.Context) {
	userID := c.GetString("userID")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if size < 1 || size > 100 {
		size = 20
	}
	query := repository.ListQuery{
		Label: c.DefaultQuery("label", "INBOX"),
		Page:  page,
		Size:  size,
	}

	emails, total, err := h.emailUsecase.ListEmails(userID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list emails"})
		return
	}

	totalPages := int((total + int64(query.Size) - 1) / int64(query.Size))
	c.JSON(http.StatusOK, emaildto.ListEmailsResponse{
		Emails:     emails,
		Total:      total,
		Page:       query.Page,
		TotalPages: totalPages,
	})
}

// SearchEmails handles GET /api/emails/search?q=...&limit=20
func (h *EmailHandler) SearchEmails(c *gin.Context) {
	userID := c.GetString("userID")

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter q"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	emails, err := h.emailUsecase.SearchEmails(userID, query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emails": emails, "total": len(emails)})
}

// GetEmail handles GET /api/emails/:id
func (h *EmailHandler) GetEmail(c *gin.Context) {
	userID := c.GetString("userID")

	email, err := h.emailUsecase.GetEmailByID(userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, emaildomain.ErrEmailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Email not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get email"})
		return
	}
	c.JSON(http.StatusOK, email)
}

// GetThread handles GET /api/emails/thread/:threadId
func (h *EmailHandler) GetThread(c *gin.Context) {
	userID := c.GetString("userID")

	emails, err := h.emailUsecase.GetThread(userID, c.Param("threadId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get thread"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emails": emails})
}

// DownloadAttachment handles GET /api/emails/attachments/:attachmentId
func (h *EmailHandler) DownloadAttachment(c *gin.Context) {
	userID := c.GetString("userID")

	attachment, err := h.emailUsecase.DownloadAttachment(c.Request.Context(), userID, c.Param("attachmentId"))
	if err != nil {
		switch {
		case errors.Is(err, emaildomain.ErrEmailNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Attachment not found"})
		case errors.Is(err, emaildomain.ErrSessionNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No active session"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to download attachment"})
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.Filename))
	c.Data(http.StatusOK, attachment.MimeType, attachment.Data)
}

// SendEmail handles POST /api/emails/send
func (h *EmailHandler) SendEmail(c *gin.Context) {
	userID := c.GetString("userID")

	var req emaildto.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := &emaildomain.OutgoingMessage{
		To:       req.To,
		Cc:       req.Cc,
		Bcc:      req.Bcc,
		Subject:  req.Subject,
		BodyHTML: req.BodyHTML,
	}
	if err := h.emailUsecase.SendEmail(c.Request.Context(), userID, msg); err != nil {
		if errors.Is(err, emaildomain.ErrSessionNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No active session"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email sent"})
}

// HandleGmailWebhook handles POST /api/emails/webhooks/gmail. It always
// acknowledges with 200 so the push subscription never retries forever.
func (h *EmailHandler) HandleGmailWebhook(c *gin.Context) {
	var envelope emaildto.PubSubEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.Status(http.StatusOK)
		return
	}
	h.syncUsecase.ProcessWebhook(&envelope)
	c.Status(http.StatusOK)
}
