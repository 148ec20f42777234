package repository

import emaildomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/domain"

// ListQuery narrows and pages an email listing.
type ListQuery struct {
	Label string // label/category filter, empty for all
	Page  int    // one-based
	Size  int
}

// EmailRepository defines persistence operations for synced emails.
type EmailRepository interface {
	// Create inserts the email shell so attachments can reference its ID.
	Create(email *emaildomain.Email) error

	// Update persists decoded fields and inserts any new attachments.
	Update(email *emaildomain.Email) error

	// ExistsByGmailIDAndUserID reports whether the message was already
	// synced for this account. The delta path checks this before fetching.
	ExistsByGmailIDAndUserID(gmailID, userID string) (bool, error)

	FindByIDAndUserID(id, userID string) (*emaildomain.Email, error)
	FindByThreadIDAndUserID(threadID, userID string) ([]emaildomain.Email, error)

	// ListByUserID returns one page of emails, newest first, plus the
	// total row count for the query.
	ListByUserID(userID string, q ListQuery) ([]emaildomain.Email, int64, error)

	// FindRecentByUserID returns the newest emails without attachment
	// preloading. Used as the candidate set for fuzzy search.
	FindRecentByUserID(userID string, limit int) ([]emaildomain.Email, error)

	// FindAttachmentForUser resolves a local attachment ID scoped to the
	// user and returns it with its owning email.
	FindAttachmentForUser(attachmentID, userID string) (*emaildomain.Attachment, *emaildomain.Email, error)
}
