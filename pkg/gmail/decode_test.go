package gmail

import (
	"encoding/base64"
	"testing"

	emaildomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func inlinePart(mimeType, content string) *emaildomain.MessagePayload {
	return &emaildomain.MessagePayload{
		MimeType: mimeType,
		Body:     &emaildomain.MessageBody{Data: b64(content)},
	}
}

func TestDecodeNilPayload(t *testing.T) {
	msg := Decode(nil)

	assert.Empty(t, msg.Subject)
	assert.Empty(t, msg.Sender)
	assert.Nil(t, msg.BodyHTML)
	assert.Nil(t, msg.BodyText)
	assert.Empty(t, msg.Attachments)
}

func TestDecodeHeaders(t *testing.T) {
	payload := &emaildomain.MessagePayload{
		MimeType: "text/plain",
		Headers: []emaildomain.MessageHeader{
			{Name: "Subject", Value: "Quarterly report"},
			{Name: "From", Value: "Jane Doe <jane@example.com>"},
			{Name: "To", Value: "a@example.com, Bob <b@example.com>"},
			{Name: "Cc", Value: "c@example.com"},
		},
		Body: &emaildomain.MessageBody{Data: b64("hello")},
	}

	msg := Decode(payload)

	assert.Equal(t, "Quarterly report", msg.Subject)
	assert.Equal(t, "jane@example.com", msg.Sender)
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com", "c@example.com"}, []string(msg.Recipients))
}

func TestDecodeHeaderNamesAreCaseInsensitive(t *testing.T) {
	payload := &emaildomain.MessagePayload{
		Headers: []emaildomain.MessageHeader{
			{Name: "SUBJECT", Value: "hi"},
			{Name: "from", Value: "x@y.com"},
		},
	}

	msg := Decode(payload)

	assert.Equal(t, "hi", msg.Subject)
	assert.Equal(t, "x@y.com", msg.Sender)
}

func TestDecodeSenderWithoutAngleBrackets(t *testing.T) {
	payload := &emaildomain.MessagePayload{
		Headers: []emaildomain.MessageHeader{
			{Name: "From", Value: "plain@example.com"},
		},
	}

	assert.Equal(t, "plain@example.com", Decode(payload).Sender)
}

func TestDecodeSinglePartPlainBody(t *testing.T) {
	msg := Decode(inlinePart("text/plain", "just text"))

	require.NotNil(t, msg.BodyText)
	assert.Equal(t, "just text", *msg.BodyText)
	assert.Nil(t, msg.BodyHTML)
}

func TestDecodeMultipartAlternative(t *testing.T) {
	payload := &emaildomain.MessagePayload{
		MimeType: "multipart/alternative",
		Parts: []*emaildomain.MessagePayload{
			inlinePart("text/plain", "plain version"),
			inlinePart("text/html", "<p>html version</p>"),
		},
	}

	msg := Decode(payload)

	require.NotNil(t, msg.BodyText)
	require.NotNil(t, msg.BodyHTML)
	assert.Equal(t, "plain version", *msg.BodyText)
	assert.Equal(t, "<p>html version</p>", *msg.BodyHTML)
}

func TestDecodeFirstBodyOfEachTypeWins(t *testing.T) {
	payload := &emaildomain.MessagePayload{
		MimeType: "multipart/mixed",
		Parts: []*emaildomain.MessagePayload{
			inlinePart("text/html", "first html"),
			inlinePart("text/html", "second html"),
			inlinePart("text/plain", "trailing plain"),
		},
	}

	msg := Decode(payload)

	require.NotNil(t, msg.BodyHTML)
	assert.Equal(t, "first html", *msg.BodyHTML)
	require.NotNil(t, msg.BodyText)
	assert.Equal(t, "trailing plain", *msg.BodyText)
}

func TestDecodeAttachmentLeafIsNotRecursed(t *testing.T) {
	payload := &emaildomain.MessagePayload{
		MimeType: "multipart/mixed",
		Parts: []*emaildomain.MessagePayload{
			inlinePart("text/plain", "body"),
			{
				MimeType: "application/pdf",
				Filename: "report.pdf",
				Body:     &emaildomain.MessageBody{AttachmentID: "att-1", Size: 2048},
				// Children of an attachment node must be ignored
				Parts: []*emaildomain.MessagePayload{
					inlinePart("text/html", "should never appear"),
				},
			},
		},
	}

	msg := Decode(payload)

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "report.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].MimeType)
	assert.Equal(t, "att-1", msg.Attachments[0].GmailAttachmentID)
	assert.Equal(t, int64(2048), msg.Attachments[0].Size)
	assert.Nil(t, msg.BodyHTML)
}

func TestDecodeFilenameWithoutAttachmentIDIsNotAnAttachment(t *testing.T) {
	payload := &emaildomain.MessagePayload{
		MimeType: "text/plain",
		Filename: "inline.txt",
		Body:     &emaildomain.MessageBody{Data: b64("inline content")},
	}

	msg := Decode(payload)

	assert.Empty(t, msg.Attachments)
	require.NotNil(t, msg.BodyText)
	assert.Equal(t, "inline content", *msg.BodyText)
}

func TestDecodeNestedMultipart(t *testing.T) {
	payload := &emaildomain.MessagePayload{
		MimeType: "multipart/mixed",
		Parts: []*emaildomain.MessagePayload{
			{
				MimeType: "multipart/alternative",
				Parts: []*emaildomain.MessagePayload{
					inlinePart("text/plain", "nested plain"),
					inlinePart("text/html", "nested html"),
				},
			},
			{
				MimeType: "image/png",
				Filename: "logo.png",
				Body:     &emaildomain.MessageBody{AttachmentID: "att-2", Size: 512},
			},
		},
	}

	msg := Decode(payload)

	require.NotNil(t, msg.BodyText)
	require.NotNil(t, msg.BodyHTML)
	assert.Equal(t, "nested plain", *msg.BodyText)
	assert.Equal(t, "nested html", *msg.BodyHTML)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "logo.png", msg.Attachments[0].Filename)
}

func TestDecodePaddedBase64Data(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte("padded body"))
	payload := &emaildomain.MessagePayload{
		MimeType: "text/plain",
		Body:     &emaildomain.MessageBody{Data: padded},
	}

	msg := Decode(payload)

	require.NotNil(t, msg.BodyText)
	assert.Equal(t, "padded body", *msg.BodyText)
}

func TestDecodeMalformedBase64DegradesToEmpty(t *testing.T) {
	payload := &emaildomain.MessagePayload{
		MimeType: "text/plain",
		Body:     &emaildomain.MessageBody{Data: "!!!not base64!!!"},
	}

	msg := Decode(payload)

	require.NotNil(t, msg.BodyText)
	assert.Equal(t, "", *msg.BodyText)
}

func TestCleanEmailAddress(t *testing.T) {
	assert.Equal(t, "jane@x.com", cleanEmailAddress("Jane Doe <jane@x.com>"))
	assert.Equal(t, "jane@x.com", cleanEmailAddress("jane@x.com"))
	assert.Equal(t, "a@b.com", cleanEmailAddress("<a@b.com>"))
	assert.Equal(t, "weird >", cleanEmailAddress("weird >"))
	assert.Equal(t, "", cleanEmailAddress(""))
}

func TestExtractEmails(t *testing.T) {
	got := extractEmails("a@x.com, Bob <b@x.com> ,  c@x.com")
	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com"}, got)

	assert.Nil(t, extractEmails(""))
}

func TestRecipientsDeduplicated(t *testing.T) {
	payload := &emaildomain.MessagePayload{
		Headers: []emaildomain.MessageHeader{
			{Name: "To", Value: "dup@x.com"},
			{Name: "Cc", Value: "Dup Person <dup@x.com>, other@x.com"},
		},
	}

	msg := Decode(payload)

	assert.ElementsMatch(t, []string{"dup@x.com", "other@x.com"}, []string(msg.Recipients))
}
