package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	authrepo "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/repository"
	emaildomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/domain"
	emaildto "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/dto"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/repository"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/pkg/gmail"

	"golang.org/x/oauth2"
)

// watchLabels is the label set the push subscription reports changes for.
var watchLabels = []string{"INBOX", "SENT", "SPAM", "DRAFT"}

// SyncStats counts terminal outcomes of background sync work, so that
// fire-and-forget jobs still leave an observable trace.
type SyncStats struct {
	jobsRun            atomic.Uint64
	messagesFetched    atomic.Uint64
	fetchFailures      atomic.Uint64
	staleNotifications atomic.Uint64
	webhookErrors      atomic.Uint64
	watchFailures      atomic.Uint64
}

// SyncStatsSnapshot is a point-in-time copy of the counters.
type SyncStatsSnapshot struct {
	JobsRun            uint64 `json:"jobs_run"`
	MessagesFetched    uint64 `json:"messages_fetched"`
	FetchFailures      uint64 `json:"fetch_failures"`
	StaleNotifications uint64 `json:"stale_notifications"`
	WebhookErrors      uint64 `json:"webhook_errors"`
	WatchFailures      uint64 `json:"watch_failures"`
}

// syncUsecase implements SyncUsecase.
type syncUsecase struct {
	emailRepo   repository.EmailRepository
	userRepo    authrepo.UserRepository
	sessionRepo authrepo.SessionRepository
	provider    emaildomain.MailProvider
	topicName   string
	syncLimit   int64
	queue       *syncQueue
	stats       SyncStats
}

const (
	syncWorkerCount  = 4
	syncQueueBuffer  = 256
	defaultSyncLimit = 100
)

// NewSyncUsecase creates the sync engine and starts its worker pool.
func NewSyncUsecase(emailRepo repository.EmailRepository, userRepo authrepo.UserRepository, sessionRepo authrepo.SessionRepository, provider emaildomain.MailProvider, topicName string, syncLimit int64) SyncUsecase {
	if syncLimit <= 0 {
		syncLimit = defaultSyncLimit
	}
	return &syncUsecase{
		emailRepo:   emailRepo,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		provider:    provider,
		topicName:   topicName,
		syncLimit:   syncLimit,
		queue:       newSyncQueue(syncWorkerCount, syncQueueBuffer),
	}
}

func (u *syncUsecase) Stats() SyncStatsSnapshot {
	return SyncStatsSnapshot{
		JobsRun:            u.stats.jobsRun.Load(),
		MessagesFetched:    u.stats.messagesFetched.Load(),
		FetchFailures:      u.stats.fetchFailures.Load(),
		StaleNotifications: u.stats.staleNotifications.Load(),
		WebhookErrors:      u.stats.webhookErrors.Load(),
		WatchFailures:      u.stats.watchFailures.Load(),
	}
}

func (u *syncUsecase) Close() {
	u.queue.close()
}

// SyncInitialEmails schedules the initial inbox sync on the account's
// queue worker and returns immediately. The queue key is the account
// email so webhook jobs for the same mailbox land on the same worker.
func (u *syncUsecase) SyncInitialEmails(googleAccessToken, userID string) {
	key := userID
	if user, err := u.userRepo.FindByID(userID); err == nil && user != nil {
		key = user.Email
	}
	u.queue.enqueue(key, func() {
		u.stats.jobsRun.Add(1)
		u.runInitialSync(googleAccessToken, userID)
	})
}

// runInitialSync is best-effort: one bad message never aborts the batch,
// and a watch registration happens whenever the listing succeeded at all.
func (u *syncUsecase) runInitialSync(googleAccessToken, userID string) {
	log.Printf("[Sync] Starting background sync of primary inbox for user %s", userID)
	ctx := context.Background()

	refreshToken := u.refreshTokenFor(userID)

	refs, err := u.provider.ListMessages(ctx, googleAccessToken, refreshToken, "INBOX", u.syncLimit, u.tokenUpdateCallback(userID))
	if err != nil {
		u.stats.fetchFailures.Add(1)
		log.Printf("[Sync] Critical error during initial email sync for user %s: %v", userID, err)
		return
	}

	log.Printf("[Sync] Found %d emails to sync for user %s", len(refs), userID)
	for _, ref := range refs {
		if _, err := u.FetchAndSaveEmail(ctx, ref.ID, googleAccessToken, refreshToken, userID); err != nil {
			u.stats.fetchFailures.Add(1)
			log.Printf("[Sync] Failed to sync email %s: %v", ref.ID, err)
		}
	}

	// A push subscription must exist regardless of how many historical
	// messages were recoverable.
	u.RegisterWatch(ctx, googleAccessToken, refreshToken, userID)
	log.Printf("[Sync] Finished background sync for user %s", userID)
}

// FetchAndSaveEmail fetches one message, decodes its MIME tree and
// persists it. The write is two-phase: the shell row first so attachments
// can reference the email ID, then the decoded content.
func (u *syncUsecase) FetchAndSaveEmail(ctx context.Context, gmailID, accessToken, refreshToken, userID string) (*emaildomain.Email, error) {
	exists, err := u.emailRepo.ExistsByGmailIDAndUserID(gmailID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	msg, err := u.provider.GetMessage(ctx, accessToken, refreshToken, gmailID, u.tokenUpdateCallback(userID))
	if err != nil {
		return nil, err
	}
	if msg == nil {
		// Tombstoned or transient ID, not a hard failure
		return nil, nil
	}

	email := &emaildomain.Email{
		GmailID:    msg.ID,
		UserID:     userID,
		ThreadID:   msg.ThreadID,
		Snippet:    msg.Snippet,
		ReceivedAt: time.UnixMilli(msg.InternalDate),
		Labels:     emaildomain.StringSet(msg.LabelIDs),
	}
	if err := u.emailRepo.Create(email); err != nil {
		return nil, err
	}

	decoded := gmail.Decode(msg.Payload)
	email.Subject = decoded.Subject
	email.Sender = decoded.Sender
	email.Recipients = decoded.Recipients
	email.BodyHTML = decoded.BodyHTML
	email.BodyText = decoded.BodyText
	email.Attachments = decoded.Attachments

	if err := u.emailRepo.Update(email); err != nil {
		return nil, err
	}

	u.stats.messagesFetched.Add(1)
	return email, nil
}

// RegisterWatch starts mailbox push notifications and overwrites the
// account's cursor with the returned baseline: a new watch registration
// resets the provider's notion of where change reporting starts.
func (u *syncUsecase) RegisterWatch(ctx context.Context, accessToken, refreshToken, userID string) {
	historyID, err := u.provider.Watch(ctx, accessToken, refreshToken, u.topicName, watchLabels, u.tokenUpdateCallback(userID))
	if err != nil {
		u.stats.watchFailures.Add(1)
		log.Printf("[Watch] Watch request failed for user %s: %v", userID, err)
		return
	}

	if err := u.userRepo.UpdateLastHistoryID(userID, historyID); err != nil {
		u.stats.watchFailures.Add(1)
		log.Printf("[Watch] Failed to record baseline history id for user %s: %v", userID, err)
		return
	}
	log.Printf("[Watch] Watch registered for user %s, baseline history id %d", userID, historyID)
}

// SyncFromHistoryID runs the delta sync. Two terminal outcomes: the change
// log is processed and the cursor advanced, or the start cursor has expired
// and the cursor is reset to fallbackHistoryID without backfilling the gap.
func (u *syncUsecase) SyncFromHistoryID(ctx context.Context, user SyncAccount, accessToken, refreshToken string, startHistoryID, fallbackHistoryID uint64) error {
	page, err := u.provider.ListHistory(ctx, accessToken, refreshToken, startHistoryID, u.tokenUpdateCallback(user.ID))
	if err != nil {
		if errors.Is(err, emaildomain.ErrHistoryExpired) {
			// The server pruned history older than the cursor (~30 days).
			// Reset to the notification's cursor; the gap is not
			// recovered here.
			log.Printf("[Sync] History id %d expired for user %s, resetting to %d", startHistoryID, user.ID, fallbackHistoryID)
			return u.userRepo.UpdateLastHistoryID(user.ID, fallbackHistoryID)
		}
		return err
	}

	for _, entry := range page.History {
		for _, ref := range entry.MessagesAdded {
			if _, err := u.FetchAndSaveEmail(ctx, ref.ID, accessToken, refreshToken, user.ID); err != nil {
				u.stats.fetchFailures.Add(1)
				log.Printf("[Sync] Failed to sync email %s from history: %v", ref.ID, err)
			}
		}
	}

	if page.HistoryID != 0 {
		if err := u.userRepo.UpdateLastHistoryID(user.ID, page.HistoryID); err != nil {
			return err
		}
		log.Printf("[Sync] Delta sync complete for user %s, history id now %d", user.ID, page.HistoryID)
	}
	return nil
}

// ProcessWebhook decodes a push envelope and schedules the cursor work on
// the account's queue worker. It never fails: the push provider treats any
// error response as "redeliver", and redelivering a poison message for
// days is worse than dropping one update.
func (u *syncUsecase) ProcessWebhook(envelope *emaildto.PubSubEnvelope) {
	if envelope == nil || envelope.Message.Data == "" {
		u.stats.webhookErrors.Add(1)
		log.Printf("[Webhook] Empty push envelope, ignoring")
		return
	}

	notification, err := decodeNotification(envelope.Message.Data)
	if err != nil {
		u.stats.webhookErrors.Add(1)
		log.Printf("[Webhook] Failed to decode notification %s: %v", envelope.Message.MessageID, err)
		return
	}

	log.Printf("[Webhook] Notification for %s (historyId %d)", notification.EmailAddress, notification.HistoryID)

	u.queue.enqueue(notification.EmailAddress, func() {
		u.stats.jobsRun.Add(1)
		u.processNotification(notification.EmailAddress, notification.HistoryID)
	})
}

// processNotification runs on the account's queue worker and is therefore
// the only writer of the account's cursor.
func (u *syncUsecase) processNotification(emailAddress string, incomingHistoryID uint64) {
	user, err := u.userRepo.FindByEmail(emailAddress)
	if err == nil && user == nil {
		err = fmt.Errorf("%w: %s", emaildomain.ErrAccountNotFound, emailAddress)
	}
	if err != nil {
		u.stats.webhookErrors.Add(1)
		log.Printf("[Webhook] %v", err)
		return
	}

	if user.LastHistoryID == 0 {
		// First notification ever: record the cursor, nothing to delta
		// against yet.
		log.Printf("[Webhook] First notification for %s, saving history id %d", emailAddress, incomingHistoryID)
		if err := u.userRepo.UpdateLastHistoryID(user.ID, incomingHistoryID); err != nil {
			u.stats.webhookErrors.Add(1)
			log.Printf("[Webhook] Failed to save history id for %s: %v", emailAddress, err)
		}
		return
	}

	if incomingHistoryID <= user.LastHistoryID {
		u.stats.staleNotifications.Add(1)
		log.Printf("[Webhook] Stale notification for %s (stored %d, incoming %d), skipping", emailAddress, user.LastHistoryID, incomingHistoryID)
		return
	}

	session, err := u.sessionRepo.FindActiveByUserID(user.ID)
	if err == nil && session == nil {
		err = fmt.Errorf("%w: user %s", emaildomain.ErrSessionNotFound, user.ID)
	}
	if err != nil {
		u.stats.webhookErrors.Add(1)
		log.Printf("[Webhook] %v", err)
		return
	}

	account := SyncAccount{ID: user.ID, Email: user.Email, LastHistoryID: user.LastHistoryID}
	if err := u.SyncFromHistoryID(context.Background(), account, session.GoogleAccessToken, session.GoogleRefreshToken, user.LastHistoryID, incomingHistoryID); err != nil {
		u.stats.webhookErrors.Add(1)
		log.Printf("[Webhook] Delta sync failed for %s: %v", emailAddress, err)
	}
}

func decodeNotification(data string) (*emaildto.GmailNotification, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		// Push deliveries may also use unpadded URL-safe encoding
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 payload: %v", err)
		}
	}

	var notification emaildto.GmailNotification
	if err := json.Unmarshal(decoded, &notification); err != nil {
		return nil, fmt.Errorf("invalid notification JSON: %v", err)
	}
	if notification.EmailAddress == "" {
		return nil, errors.New("notification missing emailAddress")
	}
	return &notification, nil
}

// refreshTokenFor resolves the Google refresh token from the newest
// session, when one exists.
func (u *syncUsecase) refreshTokenFor(userID string) string {
	session, err := u.sessionRepo.FindActiveByUserID(userID)
	if err != nil || session == nil {
		return ""
	}
	return session.GoogleRefreshToken
}

// tokenUpdateCallback persists a transparently refreshed Google access
// token back onto the account's newest session.
func (u *syncUsecase) tokenUpdateCallback(userID string) emaildomain.TokenUpdateFunc {
	return func(token *oauth2.Token) error {
		session, err := u.sessionRepo.FindActiveByUserID(userID)
		if err != nil {
			return err
		}
		if session == nil {
			return nil
		}
		session.GoogleAccessToken = token.AccessToken
		if token.RefreshToken != "" {
			session.GoogleRefreshToken = token.RefreshToken
		}
		return u.sessionRepo.Update(session)
	}
}
