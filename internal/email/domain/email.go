package domain

import "time"

// Email is a locally persisted copy of a Gmail message. The pair
// (GmailID, UserID) is unique: a message is stored once per account
// and never re-fetched after that.
type Email struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	GmailID    string     `json:"gmail_id" gorm:"column:gmail_id;not null;uniqueIndex:idx_gmail_user"`
	UserID     string     `json:"user_id" gorm:"not null;uniqueIndex:idx_gmail_user;index"`
	ThreadID   string     `json:"thread_id" gorm:"index"`
	Snippet    string     `json:"snippet" gorm:"size:1000"`
	Subject    string     `json:"subject" gorm:"size:2000"`
	Sender     string     `json:"sender" gorm:"column:sender_email"`
	ReceivedAt time.Time  `json:"received_at" gorm:"index"`
	BodyHTML   *string    `json:"body_html,omitempty" gorm:"column:body_html;type:text"`
	BodyText   *string    `json:"body_text,omitempty" gorm:"column:body_text;type:text"`
	Recipients StringSet  `json:"recipients" gorm:"type:text"`
	Labels     StringSet  `json:"labels" gorm:"type:text"`
	Attachments []Attachment `json:"attachments" gorm:"foreignKey:EmailID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Attachment holds attachment metadata only. Binary content is fetched
// from the provider on demand via GmailAttachmentID.
type Attachment struct {
	ID                string `json:"id" gorm:"primaryKey"`
	EmailID           string `json:"email_id" gorm:"not null;index"`
	Filename          string `json:"filename" gorm:"size:2000"`
	MimeType          string `json:"mime_type"`
	Size              int64  `json:"size"`
	GmailAttachmentID string `json:"-" gorm:"column:gmail_attachment_id;type:text"`
}
