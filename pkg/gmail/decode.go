package gmail

import (
	"encoding/base64"
	"strings"

	emaildomain "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/domain"
)

// DecodedMessage is the normalized result of walking a message payload tree.
// Optional fields stay nil/empty when the payload does not carry them.
type DecodedMessage struct {
	Subject     string
	Sender      string
	Recipients  emaildomain.StringSet
	BodyHTML    *string
	BodyText    *string
	Attachments []emaildomain.Attachment
}

type partKind int

const (
	// partContainer has no content of its own and only contributes
	// through its children (multipart/mixed, alternative, related).
	partContainer partKind = iota
	// partAttachment is a leaf with a filename and a provider-side
	// attachment handle. It is never recursed into.
	partAttachment
	// partInlineBody carries inline base64url data.
	partInlineBody
)

func classifyPart(p *emaildomain.MessagePayload) partKind {
	if p.Filename != "" && p.Body != nil && p.Body.AttachmentID != "" {
		return partAttachment
	}
	if p.Body != nil && p.Body.Data != "" {
		return partInlineBody
	}
	return partContainer
}

// Decode turns a provider message payload into normalized header fields,
// bodies and attachment metadata. It is total: a nil payload, missing
// headers or malformed base64 degrade to empty values, never an error.
func Decode(payload *emaildomain.MessagePayload) DecodedMessage {
	var msg DecodedMessage
	if payload == nil {
		return msg
	}
	parseHeaders(payload.Headers, &msg)
	walkPayload(payload, &msg)
	return msg
}

func parseHeaders(headers []emaildomain.MessageHeader, msg *DecodedMessage) {
	for _, h := range headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			msg.Subject = h.Value
		case "from":
			msg.Sender = cleanEmailAddress(h.Value)
		case "to", "cc", "bcc":
			for _, addr := range extractEmails(h.Value) {
				msg.Recipients = msg.Recipients.Add(addr)
			}
		}
	}
}

// walkPayload is a pre-order traversal. The first text/html part wins the
// HTML body, the first text/plain part wins the plain body; later parts of
// the same type are ignored.
func walkPayload(p *emaildomain.MessagePayload, msg *DecodedMessage) {
	switch classifyPart(p) {
	case partAttachment:
		size := int64(0)
		if p.Body != nil {
			size = p.Body.Size
		}
		msg.Attachments = append(msg.Attachments, emaildomain.Attachment{
			Filename:          p.Filename,
			MimeType:          p.MimeType,
			Size:              size,
			GmailAttachmentID: p.Body.AttachmentID,
		})
		return

	case partInlineBody:
		decoded := decodeBase64URL(p.Body.Data)
		if strings.Contains(p.MimeType, "text/html") && msg.BodyHTML == nil {
			msg.BodyHTML = &decoded
		} else if strings.Contains(p.MimeType, "text/plain") && msg.BodyText == nil {
			msg.BodyText = &decoded
		}
	}

	for _, part := range p.Parts {
		if part != nil {
			walkPayload(part, msg)
		}
	}
}

// decodeBase64URL decodes provider body data, which may arrive with or
// without padding. Malformed input decodes to an empty string.
func decodeBase64URL(encoded string) string {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return ""
	}
	return string(data)
}

// cleanEmailAddress extracts the bare address from a display-name-qualified
// value like `Jane Doe <jane@x.com>`. Without angle brackets the value is
// returned unchanged.
func cleanEmailAddress(full string) string {
	open := strings.Index(full, "<")
	end := strings.Index(full, ">")
	if open >= 0 && end > open {
		return full[open+1 : end]
	}
	return full
}

func extractEmails(headerValue string) []string {
	if headerValue == "" {
		return nil
	}
	parts := strings.Split(headerValue, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, cleanEmailAddress(strings.TrimSpace(p)))
	}
	return out
}
