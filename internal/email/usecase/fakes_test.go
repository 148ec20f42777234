package usecase

import (
	"context"
	"sync"
	"time"

	authdomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/domain"
	emaildomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/domain"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/repository"

	"github.com/google/uuid"
)

// fakeEmailRepo is an in-memory EmailRepository.
type fakeEmailRepo struct {
	mu     sync.Mutex
	emails map[string]*emaildomain.Email // keyed by gmailID+"/"+userID

	createErr error
}

func newFakeEmailRepo() *fakeEmailRepo {
	return &fakeEmailRepo{emails: make(map[string]*emaildomain.Email)}
}

func emailKey(gmailID, userID string) string {
	return gmailID + "/" + userID
}

func (r *fakeEmailRepo) Create(email *emaildomain.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	clone := *email
	r.emails[emailKey(email.GmailID, email.UserID)] = &clone
	return nil
}

func (r *fakeEmailRepo) Update(email *emaildomain.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *email
	r.emails[emailKey(email.GmailID, email.UserID)] = &clone
	return nil
}

func (r *fakeEmailRepo) ExistsByGmailIDAndUserID(gmailID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.emails[emailKey(gmailID, userID)]
	return ok, nil
}

func (r *fakeEmailRepo) FindByIDAndUserID(id, userID string) (*emaildomain.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.emails {
		if e.ID == id && e.UserID == userID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeEmailRepo) FindByThreadIDAndUserID(threadID, userID string) ([]emaildomain.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []emaildomain.Email
	for _, e := range r.emails {
		if e.ThreadID == threadID && e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEmailRepo) ListByUserID(userID string, q repository.ListQuery) ([]emaildomain.Email, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []emaildomain.Email
	for _, e := range r.emails {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeEmailRepo) FindRecentByUserID(userID string, limit int) ([]emaildomain.Email, error) {
	emails, _, err := r.ListByUserID(userID, repository.ListQuery{})
	return emails, err
}

func (r *fakeEmailRepo) FindAttachmentForUser(attachmentID, userID string) (*emaildomain.Attachment, *emaildomain.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.emails {
		if e.UserID != userID {
			continue
		}
		for _, a := range e.Attachments {
			if a.ID == attachmentID {
				att := a
				clone := *e
				return &att, &clone, nil
			}
		}
	}
	return nil, nil, nil
}

func (r *fakeEmailRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.emails)
}

func (r *fakeEmailRepo) stored(gmailID, userID string) *emaildomain.Email {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emails[emailKey(gmailID, userID)]
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*authdomain.User

	cursorUpdates int
}

func newFakeUserRepo(users ...*authdomain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*authdomain.User)}
	for _, u := range users {
		clone := *u
		r.users[u.ID] = &clone
	}
	return r
}

func (r *fakeUserRepo) Create(user *authdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(id string) (*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) FindBySub(sub string) (*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Sub == sub {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(user *authdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) UpdateLastHistoryID(userID string, historyID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.LastHistoryID = historyID
		r.cursorUpdates++
	}
	return nil
}

func (r *fakeUserRepo) cursor(userID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		return u.LastHistoryID
	}
	return 0
}

// fakeSessionRepo is an in-memory SessionRepository.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*authdomain.UserSession
}

func newFakeSessionRepo(sessions ...*authdomain.UserSession) *fakeSessionRepo {
	r := &fakeSessionRepo{sessions: make(map[string]*authdomain.UserSession)}
	for _, s := range sessions {
		clone := *s
		r.sessions[s.ID] = &clone
	}
	return r
}

func (r *fakeSessionRepo) Create(session *authdomain.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	clone := *session
	r.sessions[session.ID] = &clone
	return nil
}

func (r *fakeSessionRepo) FindActiveByUserID(userID string) (*authdomain.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var newest *authdomain.UserSession
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		if newest == nil || s.ExpiresAt.After(newest.ExpiresAt) {
			newest = s
		}
	}
	if newest == nil {
		return nil, nil
	}
	clone := *newest
	return &clone, nil
}

func (r *fakeSessionRepo) FindByRefreshTokenAndDevice(hashedToken, deviceID string) (*authdomain.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.AppRefreshToken == hashedToken && s.DeviceID == deviceID {
			clone := *s
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) Update(session *authdomain.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *session
	r.sessions[session.ID] = &clone
	return nil
}

func (r *fakeSessionRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(now) {
			delete(r.sessions, id)
		}
	}
	return nil
}

// fakeProvider is a scriptable MailProvider.
type fakeProvider struct {
	mu sync.Mutex

	listRefs []emaildomain.MessageRef
	listErr  error

	messages   map[string]*emaildomain.RemoteMessage
	getErrs    map[string]error
	getCalls   []string
	historyRes *emaildomain.HistoryPage
	historyErr error

	watchHistoryID uint64
	watchErr       error

	listCalls    int
	historyCalls int
	watchCalls   int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		messages: make(map[string]*emaildomain.RemoteMessage),
		getErrs:  make(map[string]error),
	}
}

func (p *fakeProvider) ListMessages(ctx context.Context, accessToken, refreshToken, labelID string, maxResults int64, onTokenRefresh emaildomain.TokenUpdateFunc) ([]emaildomain.MessageRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listCalls++
	if p.listErr != nil {
		return nil, p.listErr
	}
	refs := p.listRefs
	if int64(len(refs)) > maxResults {
		refs = refs[:maxResults]
	}
	return refs, nil
}

func (p *fakeProvider) GetMessage(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh emaildomain.TokenUpdateFunc) (*emaildomain.RemoteMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getCalls = append(p.getCalls, messageID)
	if err, ok := p.getErrs[messageID]; ok {
		return nil, err
	}
	return p.messages[messageID], nil
}

func (p *fakeProvider) ListHistory(ctx context.Context, accessToken, refreshToken string, startHistoryID uint64, onTokenRefresh emaildomain.TokenUpdateFunc) (*emaildomain.HistoryPage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.historyCalls++
	if p.historyErr != nil {
		return nil, p.historyErr
	}
	if p.historyRes != nil {
		return p.historyRes, nil
	}
	return &emaildomain.HistoryPage{}, nil
}

func (p *fakeProvider) Watch(ctx context.Context, accessToken, refreshToken, topicName string, labelIDs []string, onTokenRefresh emaildomain.TokenUpdateFunc) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watchCalls++
	if p.watchErr != nil {
		return 0, p.watchErr
	}
	return p.watchHistoryID, nil
}

func (p *fakeProvider) GetAttachment(ctx context.Context, accessToken, refreshToken, messageID, attachmentID string, onTokenRefresh emaildomain.TokenUpdateFunc) ([]byte, error) {
	return []byte("attachment-bytes"), nil
}

func (p *fakeProvider) SendMessage(ctx context.Context, accessToken, refreshToken string, msg *emaildomain.OutgoingMessage, onTokenRefresh emaildomain.TokenUpdateFunc) error {
	return nil
}

func (p *fakeProvider) getCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.getCalls)
}

func remoteMessage(id string, internalDate int64) *emaildomain.RemoteMessage {
	return &emaildomain.RemoteMessage{
		ID:           id,
		ThreadID:     "thread-" + id,
		LabelIDs:     []string{"INBOX"},
		Snippet:      "snippet " + id,
		InternalDate: internalDate,
		Payload: &emaildomain.MessagePayload{
			MimeType: "text/plain",
			Headers: []emaildomain.MessageHeader{
				{Name: "Subject", Value: "subject " + id},
				{Name: "From", Value: "Sender <sender@example.com>"},
			},
		},
	}
}
