package domain

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenUpdateFunc is invoked when the provider transparently refreshes the
// Google access token, so the new token can be persisted on the session.
type TokenUpdateFunc func(token *oauth2.Token) error

// MessageHeader is a single RFC 822 header line as returned by the
// provider's format=full representation.
type MessageHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MessageBody carries either inline base64url data or an attachment handle.
type MessageBody struct {
	Data         string `json:"data,omitempty"`
	AttachmentID string `json:"attachmentId,omitempty"`
	Size         int64  `json:"size,omitempty"`
}

// MessagePayload is the recursive MIME tree node of a full message.
// A structural multipart container has no body or filename of its own
// and only contributes through Parts.
type MessagePayload struct {
	MimeType string            `json:"mimeType"`
	Filename string            `json:"filename,omitempty"`
	Headers  []MessageHeader   `json:"headers,omitempty"`
	Body     *MessageBody      `json:"body,omitempty"`
	Parts    []*MessagePayload `json:"parts,omitempty"`
}

// RemoteMessage is the provider's full representation of one message.
type RemoteMessage struct {
	ID           string
	ThreadID     string
	LabelIDs     []string
	Snippet      string
	InternalDate int64 // epoch milliseconds
	Payload      *MessagePayload
}

// MessageRef identifies a message in listing and history responses.
type MessageRef struct {
	ID       string
	ThreadID string
}

// HistoryEntry is one change-log record. Only message additions are
// consumed; label changes and deletions are not propagated.
type HistoryEntry struct {
	ID            uint64
	MessagesAdded []MessageRef
}

// HistoryPage is the provider's change log starting at some cursor.
// HistoryID, when non-zero, is the new high-water mark for the mailbox.
type HistoryPage struct {
	History   []HistoryEntry
	HistoryID uint64
}

// AttachmentData is the decoded binary content of one attachment.
type AttachmentData struct {
	Filename string
	MimeType string
	Data     []byte
}

// OutgoingMessage is a composed message to be sent through the provider.
type OutgoingMessage struct {
	To       []string `json:"to"`
	Cc       []string `json:"cc,omitempty"`
	Bcc      []string `json:"bcc,omitempty"`
	Subject  string   `json:"subject"`
	BodyHTML string   `json:"bodyHtml"`
}

// MailProvider abstracts the Gmail API surface the sync engine consumes.
//
// All methods return ErrProviderUnavailable (wrapped) on transport failure
// or a non-success status, except ListHistory which returns ErrHistoryExpired
// for a pruned start cursor.
type MailProvider interface {
	// ListMessages returns up to maxResults refs for the given label,
	// newest first, in provider order.
	ListMessages(ctx context.Context, accessToken, refreshToken, labelID string, maxResults int64, onTokenRefresh TokenUpdateFunc) ([]MessageRef, error)

	// GetMessage fetches one message in full. A tombstoned or transient ID
	// yields (nil, nil), not an error.
	GetMessage(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh TokenUpdateFunc) (*RemoteMessage, error)

	// ListHistory fetches the change log starting at startHistoryID.
	ListHistory(ctx context.Context, accessToken, refreshToken string, startHistoryID uint64, onTokenRefresh TokenUpdateFunc) (*HistoryPage, error)

	// Watch registers push notifications for the mailbox and returns the
	// baseline history cursor reported by the provider.
	Watch(ctx context.Context, accessToken, refreshToken, topicName string, labelIDs []string, onTokenRefresh TokenUpdateFunc) (uint64, error)

	// GetAttachment downloads one attachment's bytes.
	GetAttachment(ctx context.Context, accessToken, refreshToken, messageID, attachmentID string, onTokenRefresh TokenUpdateFunc) ([]byte, error)

	// SendMessage sends a composed message from the account.
	SendMessage(ctx context.Context, accessToken, refreshToken string, msg *OutgoingMessage, onTokenRefresh TokenUpdateFunc) error
}
