package usecase

import (
	"context"
	"testing"
	"time"

	authdomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/auth/domain"
	emaildomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/domain"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestListEmailsStripsBodies(t *testing.T) {
	emails := newFakeEmailRepo()
	require.NoError(t, emails.Update(&emaildomain.Email{
		ID:       "e1",
		GmailID:  "m1",
		UserID:   testUserID,
		Subject:  "With bodies",
		BodyHTML: strptr("<p>huge html</p>"),
		BodyText: strptr("huge text"),
	}))

	uc := NewEmailUsecase(emails, newFakeSessionRepo(), newFakeProvider())

	got, total, err := uc.ListEmails(testUserID, repository.ListQuery{Page: 1, Size: 20})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, got, 1)
	assert.Equal(t, "With bodies", got[0].Subject)
	assert.Nil(t, got[0].BodyHTML)
	assert.Nil(t, got[0].BodyText)
}

func TestGetEmailByIDKeepsBodies(t *testing.T) {
	emails := newFakeEmailRepo()
	require.NoError(t, emails.Update(&emaildomain.Email{
		ID:       "e1",
		GmailID:  "m1",
		UserID:   testUserID,
		BodyHTML: strptr("<p>full view</p>"),
	}))

	uc := NewEmailUsecase(emails, newFakeSessionRepo(), newFakeProvider())

	got, err := uc.GetEmailByID(testUserID, "e1")

	require.NoError(t, err)
	require.NotNil(t, got.BodyHTML)
	assert.Equal(t, "<p>full view</p>", *got.BodyHTML)
}

func TestGetEmailByIDNotFound(t *testing.T) {
	uc := NewEmailUsecase(newFakeEmailRepo(), newFakeSessionRepo(), newFakeProvider())

	_, err := uc.GetEmailByID(testUserID, "missing")

	assert.ErrorIs(t, err, emaildomain.ErrEmailNotFound)
}

func TestSearchEmailsRanksSubjectHitsFirst(t *testing.T) {
	emails := newFakeEmailRepo()
	require.NoError(t, emails.Update(&emaildomain.Email{
		ID: "snippet-hit", GmailID: "m1", UserID: testUserID,
		Subject: "Hello", Snippet: "the invoice is attached",
	}))
	require.NoError(t, emails.Update(&emaildomain.Email{
		ID: "subject-hit", GmailID: "m2", UserID: testUserID,
		Subject: "Invoice for March", Snippet: "see below",
	}))
	require.NoError(t, emails.Update(&emaildomain.Email{
		ID: "no-hit", GmailID: "m3", UserID: testUserID,
		Subject: "Lunch plans", Snippet: "tacos?",
	}))

	uc := NewEmailUsecase(emails, newFakeSessionRepo(), newFakeProvider())

	got, err := uc.SearchEmails(testUserID, "invoice", 10)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "subject-hit", got[0].ID)
	assert.Equal(t, "snippet-hit", got[1].ID)
}

func TestSearchEmailsEmptyQuery(t *testing.T) {
	uc := NewEmailUsecase(newFakeEmailRepo(), newFakeSessionRepo(), newFakeProvider())

	got, err := uc.SearchEmails(testUserID, "   ", 10)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDownloadAttachmentRequiresSession(t *testing.T) {
	emails := newFakeEmailRepo()
	require.NoError(t, emails.Update(&emaildomain.Email{
		ID: "e1", GmailID: "m1", UserID: testUserID,
		Attachments: []emaildomain.Attachment{
			{ID: "a1", EmailID: "e1", Filename: "f.pdf", GmailAttachmentID: "ga1"},
		},
	}))

	uc := NewEmailUsecase(emails, newFakeSessionRepo(), newFakeProvider())

	_, err := uc.DownloadAttachment(context.Background(), testUserID, "a1")

	assert.ErrorIs(t, err, emaildomain.ErrSessionNotFound)
}

func TestDownloadAttachmentStreamsProviderBytes(t *testing.T) {
	emails := newFakeEmailRepo()
	require.NoError(t, emails.Update(&emaildomain.Email{
		ID: "e1", GmailID: "m1", UserID: testUserID,
		Attachments: []emaildomain.Attachment{
			{ID: "a1", EmailID: "e1", Filename: "f.pdf", MimeType: "application/pdf", GmailAttachmentID: "ga1"},
		},
	}))
	sessions := newFakeSessionRepo(&authdomain.UserSession{
		ID: "s1", UserID: testUserID, GoogleAccessToken: testToken,
		ExpiresAt: time.Now().Add(time.Hour),
	})

	uc := NewEmailUsecase(emails, sessions, newFakeProvider())

	got, err := uc.DownloadAttachment(context.Background(), testUserID, "a1")

	require.NoError(t, err)
	assert.Equal(t, "f.pdf", got.Filename)
	assert.Equal(t, "application/pdf", got.MimeType)
	assert.Equal(t, []byte("attachment-bytes"), got.Data)
}
