package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	emaildomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc = emaildomain.TokenUpdateFunc

// Service talks to the Gmail API on behalf of a user and implements
// emaildomain.MailProvider.
type Service struct {
	clientID     string
	clientSecret string
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// gmailService creates a Gmail API client with the user's tokens.
func (s *Service) gmailService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	tokenSource := config.TokenSource(ctx, token)

	// Wrap token source to detect refreshes
	wrappedSource := &notifyTokenSource{
		src:      tokenSource,
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}

	return srv, nil
}

// ListMessages lists up to maxResults message refs carrying the given label.
func (s *Service) ListMessages(ctx context.Context, accessToken, refreshToken, labelID string, maxResults int64, onTokenRefresh TokenUpdateFunc) ([]emaildomain.MessageRef, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	call := srv.Users.Messages.List("me").MaxResults(maxResults)
	if labelID != "" {
		call = call.LabelIds(labelID)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, providerErr("list messages", err)
	}

	refs := make([]emaildomain.MessageRef, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		refs = append(refs, emaildomain.MessageRef{ID: m.Id, ThreadID: m.ThreadId})
	}
	return refs, nil
}

// GetMessage fetches the full representation of one message. An empty
// response body yields (nil, nil): a tombstoned ID is not a hard failure.
func (s *Service) GetMessage(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh TokenUpdateFunc) (*emaildomain.RemoteMessage, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	msg, err := srv.Users.Messages.Get("me", messageID).Format("full").Do()
	if err != nil {
		return nil, providerErr("get message "+messageID, err)
	}
	if msg == nil {
		return nil, nil
	}

	return &emaildomain.RemoteMessage{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		LabelIDs:     msg.LabelIds,
		Snippet:      msg.Snippet,
		InternalDate: msg.InternalDate,
		Payload:      convertPayload(msg.Payload),
	}, nil
}

// ListHistory fetches the mailbox change log starting at startHistoryID.
// A 404 means the cursor expired server-side (history older than ~30 days
// is pruned) and maps to ErrHistoryExpired.
func (s *Service) ListHistory(ctx context.Context, accessToken, refreshToken string, startHistoryID uint64, onTokenRefresh TokenUpdateFunc) (*emaildomain.HistoryPage, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Users.History.List("me").StartHistoryId(startHistoryID).Do()
	if err != nil {
		if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 404 {
			return nil, fmt.Errorf("%w: startHistoryId=%d", emaildomain.ErrHistoryExpired, startHistoryID)
		}
		return nil, providerErr("list history", err)
	}

	page := &emaildomain.HistoryPage{HistoryID: resp.HistoryId}
	for _, h := range resp.History {
		entry := emaildomain.HistoryEntry{ID: h.Id}
		for _, m := range h.Messages {
			entry.MessagesAdded = append(entry.MessagesAdded, emaildomain.MessageRef{ID: m.Id, ThreadID: m.ThreadId})
		}
		page.History = append(page.History, entry)
	}
	return page, nil
}

// Watch registers push notifications for the mailbox and returns the
// baseline history cursor from the provider.
func (s *Service) Watch(ctx context.Context, accessToken, refreshToken, topicName string, labelIDs []string, onTokenRefresh TokenUpdateFunc) (uint64, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return 0, err
	}

	// Stop any existing watch first to avoid the "Only one user push
	// notification client allowed" error. Failure here is irrelevant.
	_ = srv.Users.Stop("me").Do()

	req := &gmail.WatchRequest{
		TopicName:           topicName,
		LabelIds:            labelIDs,
		LabelFilterBehavior: "INCLUDE",
	}

	resp, err := srv.Users.Watch("me", req).Do()
	if err != nil {
		return 0, providerErr("watch mailbox", err)
	}
	log.Printf("[Gmail] Watch started on topic %s. Expiration: %d, HistoryId: %d", topicName, resp.Expiration, resp.HistoryId)

	return resp.HistoryId, nil
}

// GetAttachment downloads the decoded bytes of one attachment.
func (s *Service) GetAttachment(ctx context.Context, accessToken, refreshToken, messageID, attachmentID string, onTokenRefresh TokenUpdateFunc) ([]byte, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	part, err := srv.Users.Messages.Attachments.Get("me", messageID, attachmentID).Do()
	if err != nil {
		return nil, providerErr("get attachment", err)
	}

	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(part.Data, "="))
	if err != nil {
		return nil, fmt.Errorf("unable to decode attachment data: %v", err)
	}
	return data, nil
}

// SendMessage sends a composed HTML message from the user's account.
func (s *Service) SendMessage(ctx context.Context, accessToken, refreshToken string, out *emaildomain.OutgoingMessage, onTokenRefresh TokenUpdateFunc) error {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return err
	}

	var raw bytes.Buffer
	raw.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(out.To, ", ")))
	if len(out.Cc) > 0 {
		raw.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(out.Cc, ", ")))
	}
	if len(out.Bcc) > 0 {
		raw.WriteString(fmt.Sprintf("Bcc: %s\r\n", strings.Join(out.Bcc, ", ")))
	}
	// Encode subject to handle non-ASCII characters (RFC 2047)
	encodedSubject := fmt.Sprintf("=?utf-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(out.Subject)))
	raw.WriteString(fmt.Sprintf("Subject: %s\r\n", encodedSubject))
	raw.WriteString("MIME-Version: 1.0\r\n")
	raw.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	raw.WriteString(out.BodyHTML)

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw.Bytes()),
	}

	if _, err := srv.Users.Messages.Send("me", msg).Do(); err != nil {
		return providerErr("send message", err)
	}
	return nil
}

func convertPayload(p *gmail.MessagePart) *emaildomain.MessagePayload {
	if p == nil {
		return nil
	}

	out := &emaildomain.MessagePayload{
		MimeType: p.MimeType,
		Filename: p.Filename,
	}
	for _, h := range p.Headers {
		out.Headers = append(out.Headers, emaildomain.MessageHeader{Name: h.Name, Value: h.Value})
	}
	if p.Body != nil {
		out.Body = &emaildomain.MessageBody{
			Data:         p.Body.Data,
			AttachmentID: p.Body.AttachmentId,
			Size:         p.Body.Size,
		}
	}
	for _, part := range p.Parts {
		out.Parts = append(out.Parts, convertPayload(part))
	}
	return out
}

func providerErr(op string, err error) error {
	return fmt.Errorf("%w: unable to %s: %v", emaildomain.ErrProviderUnavailable, op, err)
}
