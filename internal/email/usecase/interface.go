package usecase

import (
	"context"

	emaildomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/domain"
	emaildto "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/dto"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/repository"
)

// SyncUsecase is the mailbox synchronization engine: initial sync after
// login, watch registration and push-notification-driven delta sync.
type SyncUsecase interface {
	// SyncInitialEmails schedules a background sync of the most recent
	// inbox messages for the account, followed by watch registration.
	// It returns immediately.
	SyncInitialEmails(googleAccessToken, userID string)

	// FetchAndSaveEmail fetches one message in full, decodes it and
	// persists it. Returns (nil, nil) when the message is already stored
	// or the provider has no body for the ID.
	FetchAndSaveEmail(ctx context.Context, gmailID, accessToken, refreshToken, userID string) (*emaildomain.Email, error)

	// RegisterWatch registers mailbox push notifications and records the
	// returned baseline cursor. Failures are logged, never returned.
	RegisterWatch(ctx context.Context, accessToken, refreshToken, userID string)

	// SyncFromHistoryID runs the delta sync between startHistoryID and
	// whatever the provider change log reports. On an expired start
	// cursor the account cursor is reset to fallbackHistoryID.
	SyncFromHistoryID(ctx context.Context, user SyncAccount, accessToken, refreshToken string, startHistoryID, fallbackHistoryID uint64) error

	// ProcessWebhook ingests one push notification envelope. It never
	// fails: every error is logged and swallowed so the caller can
	// acknowledge the delivery.
	ProcessWebhook(envelope *emaildto.PubSubEnvelope)

	// Stats reports counters for the background sync machinery.
	Stats() SyncStatsSnapshot

	// Close drains the sync queue. Used by tests and shutdown.
	Close()
}

// SyncAccount is the slice of the user record the sync engine touches.
type SyncAccount struct {
	ID            string
	Email         string
	LastHistoryID uint64
}

// EmailUsecase serves the read API plus on-demand attachment download
// and outbound send.
type EmailUsecase interface {
	ListEmails(userID string, q repository.ListQuery) ([]emaildomain.Email, int64, error)
	SearchEmails(userID, query string, limit int) ([]emaildomain.Email, error)
	GetEmailByID(userID, id string) (*emaildomain.Email, error)
	GetThread(userID, threadID string) ([]emaildomain.Email, error)
	DownloadAttachment(ctx context.Context, userID, attachmentID string) (*emaildomain.AttachmentData, error)
	SendEmail(ctx context.Context, userID string, msg *emaildomain.OutgoingMessage) error
}
