package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	authdomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/domain"
	authrepo "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/repository"
	emaildomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/domain"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/repository"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/pkg/fuzzy"

	"golang.org/x/oauth2"
)

// searchCandidateLimit bounds how many recent emails the in-memory
// fuzzy matcher scans per search.
const searchCandidateLimit = 500

type emailUsecase struct {
	emailRepo   repository.EmailRepository
	sessionRepo authrepo.SessionRepository
	provider    emaildomain.MailProvider
}

// NewEmailUsecase creates the mailbox read/send usecase.
func NewEmailUsecase(emailRepo repository.EmailRepository, sessionRepo authrepo.SessionRepository, provider emaildomain.MailProvider) EmailUsecase {
	return &emailUsecase{
		emailRepo:   emailRepo,
		sessionRepo: sessionRepo,
		provider:    provider,
	}
}

func (u *emailUsecase) ListEmails(userID string, q repository.ListQuery) ([]emaildomain.Email, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 || q.Size > 100 {
		q.Size = 20
	}

	emails, total, err := u.emailRepo.ListByUserID(userID, q)
	if err != nil {
		return nil, 0, err
	}
	// Listings carry metadata only; bodies come from GetEmailByID
	for i := range emails {
		emails[i].BodyHTML = nil
		emails[i].BodyText = nil
	}
	return emails, total, nil
}

// SearchEmails ranks the user's recent emails against the query with
// typo-tolerant matching on subject, sender and snippet.
func (u *emailUsecase) SearchEmails(userID, query string, limit int) ([]emaildomain.Email, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []emaildomain.Email{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	candidates, err := u.emailRepo.FindRecentByUserID(userID, searchCandidateLimit)
	if err != nil {
		return nil, err
	}

	type scored struct {
		email emaildomain.Email
		score float64
	}
	var matches []scored
	for _, email := range candidates {
		if !fuzzy.MatchEmail(query, email.Subject, email.Sender, email.Snippet) {
			continue
		}
		matches = append(matches, scored{
			email: email,
			score: fuzzy.ScoreEmail(query, email.Subject, email.Sender, email.Snippet),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]emaildomain.Email, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.email)
	}
	return results, nil
}

func (u *emailUsecase) GetEmailByID(userID, id string) (*emaildomain.Email, error) {
	email, err := u.emailRepo.FindByIDAndUserID(id, userID)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, emaildomain.ErrEmailNotFound
	}
	return email, nil
}

func (u *emailUsecase) GetThread(userID, threadID string) ([]emaildomain.Email, error) {
	return u.emailRepo.FindByThreadIDAndUserID(threadID, userID)
}

// DownloadAttachment streams attachment bytes from the provider. Only
// metadata is stored locally, the content stays upstream.
func (u *emailUsecase) DownloadAttachment(ctx context.Context, userID, attachmentID string) (*emaildomain.AttachmentData, error) {
	attachment, email, err := u.emailRepo.FindAttachmentForUser(attachmentID, userID)
	if err != nil {
		return nil, err
	}
	if attachment == nil || email == nil {
		return nil, emaildomain.ErrEmailNotFound
	}

	session, err := u.activeSession(userID)
	if err != nil {
		return nil, err
	}

	data, err := u.provider.GetAttachment(ctx, session.GoogleAccessToken, session.GoogleRefreshToken, email.GmailID, attachment.GmailAttachmentID, u.sessionTokenCallback(session))
	if err != nil {
		return nil, err
	}
	return &emaildomain.AttachmentData{
		Filename: attachment.Filename,
		MimeType: attachment.MimeType,
		Data:     data,
	}, nil
}

func (u *emailUsecase) SendEmail(ctx context.Context, userID string, msg *emaildomain.OutgoingMessage) error {
	session, err := u.activeSession(userID)
	if err != nil {
		return err
	}
	return u.provider.SendMessage(ctx, session.GoogleAccessToken, session.GoogleRefreshToken, msg, u.sessionTokenCallback(session))
}

func (u *emailUsecase) activeSession(userID string) (*authdomain.UserSession, error) {
	session, err := u.sessionRepo.FindActiveByUserID(userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: user %s", emaildomain.ErrSessionNotFound, userID)
	}
	return session, nil
}

func (u *emailUsecase) sessionTokenCallback(session *authdomain.UserSession) emaildomain.TokenUpdateFunc {
	return func(token *oauth2.Token) error {
		session.GoogleAccessToken = token.AccessToken
		if token.RefreshToken != "" {
			session.GoogleRefreshToken = token.RefreshToken
		}
		return u.sessionRepo.Update(session)
	}
}
