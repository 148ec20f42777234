package dto

import emaildomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/domain"

// PubSubEnvelope is the push delivery wrapper around a Gmail notification.
// Message.Data is base64-encoded JSON.
type PubSubEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription,omitempty"`
}

// GmailNotification is the decoded inner payload of a push delivery.
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// ListEmailsResponse is one page of a mailbox listing. Body fields are
// stripped from the entries to keep the payload small.
type ListEmailsResponse struct {
	Emails     []emaildomain.Email `json:"emails"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"total_pages"`
}

// SendEmailRequest mirrors emaildomain.OutgoingMessage on the wire.
type SendEmailRequest struct {
	To       []string `json:"to" binding:"required,min=1"`
	Cc       []string `json:"cc"`
	Bcc      []string `json:"bcc"`
	Subject  string   `json:"subject"`
	BodyHTML string   `json:"bodyHtml"`
}
