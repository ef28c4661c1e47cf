package gmail

import (
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
)

// AttachmentInfo is the metadata of an attachment part.
type AttachmentInfo struct {
	Filename     string
	MimeType     string
	Size         int64
	AttachmentID string
}

// Content is a parsed, display-ready view of an API message.
type Content struct {
	ID          string
	ThreadID    string
	Subject     string
	From        string
	To          string
	Date        string
	Body        string
	Labels      []string
	Attachments []AttachmentInfo
}

// Unread reports whether the message carries the UNREAD label.
func (c *Content) Unread() bool {
	for _, l := range c.Labels {
		if l == labelUnread {
			return true
		}
	}
	return false
}

const labelUnread = "UNREAD"

// ParseMessage extracts headers, body, and attachment metadata from a full
// API message.
func ParseMessage(m *gmailapi.Message) *Content {
	c := &Content{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Subject:  "No Subject",
		From:     "Unknown",
		To:       "Unknown",
		Date:     "Unknown",
		Labels:   m.LabelIds,
	}
	if m.Payload == nil {
		return c
	}

	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			c.Subject = h.Value
		case "from":
			c.From = h.Value
		case "to":
			c.To = h.Value
		case "date":
			c.Date = h.Value
		}
	}

	c.Body = extractBody(m.Payload)
	c.Attachments = extractAttachments(m.Payload)
	return c
}

// extractBody prefers a text/plain part, falling back to text/html.
func extractBody(payload *gmailapi.MessagePart) string {
	if len(payload.Parts) == 0 {
		if payload.MimeType == "text/plain" || payload.MimeType == "text/html" {
			return decodeBody(payload.Body)
		}
		return ""
	}

	var html string
	for _, part := range payload.Parts {
		switch {
		case part.MimeType == "text/plain":
			if body := decodeBody(part.Body); body != "" {
				return body
			}
		case part.MimeType == "text/html" && html == "":
			html = decodeBody(part.Body)
		case strings.HasPrefix(part.MimeType, "multipart/"):
			if body := extractBody(part); body != "" && html == "" {
				html = body
			}
		}
	}
	return html
}

func decodeBody(body *gmailapi.MessagePartBody) string {
	if body == nil || body.Data == "" {
		return ""
	}
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(
		strings.TrimRight(body.Data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}

func extractAttachments(payload *gmailapi.MessagePart) []AttachmentInfo {
	var out []AttachmentInfo
	for _, part := range payload.Parts {
		if part.Filename == "" {
			continue
		}
		info := AttachmentInfo{
			Filename: part.Filename,
			MimeType: part.MimeType,
		}
		if part.Body != nil {
			info.Size = part.Body.Size
			info.AttachmentID = part.Body.AttachmentId
		}
		out = append(out, info)
	}
	return out
}

// OutgoingMessage is a message to be sent or saved as a draft.
type OutgoingMessage struct {
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	Attachments []string // file paths
}

// BuildRaw assembles the RFC 822 message and returns it base64url-encoded
// the way the API's raw field expects.
func (m *OutgoingMessage) BuildRaw() (string, error) {
	var msg strings.Builder

	to := sanitizeAddressList(m.To)
	if len(to) > 0 {
		msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	}
	cc := sanitizeAddressList(m.Cc)
	if len(cc) > 0 {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(cc, ", ")))
	}
	bcc := sanitizeAddressList(m.Bcc)
	if len(bcc) > 0 {
		msg.WriteString(fmt.Sprintf("Bcc: %s\r\n", strings.Join(bcc, ", ")))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", sanitizeHeaderValue(m.Subject)))
	msg.WriteString("MIME-Version: 1.0\r\n")

	var raw string
	if len(m.Attachments) > 0 {
		built, err := m.buildMultipart(&msg)
		if err != nil {
			return "", err
		}
		raw = built
	} else {
		msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(m.Body)
		raw = msg.String()
	}

	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

func (m *OutgoingMessage) buildMultipart(headerBuilder *strings.Builder) (string, error) {
	var buf strings.Builder
	writer := multipart.NewWriter(&buf)

	headerBuilder.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", writer.Boundary()))
	headerBuilder.WriteString("\r\n")
	buf.WriteString(headerBuilder.String())

	bodyHeader := make(textproto.MIMEHeader)
	bodyHeader.Set("Content-Type", "text/plain; charset=\"UTF-8\"")
	bodyPart, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return "", err
	}
	if _, err := bodyPart.Write([]byte(m.Body)); err != nil {
		return "", fmt.Errorf("failed to write body: %w", err)
	}

	for _, path := range m.Attachments {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read attachment %s: %w", path, err)
		}

		filename := sanitizeFilename(filepath.Base(path))
		mimeType := mime.TypeByExtension(filepath.Ext(filename))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		attHeader := make(textproto.MIMEHeader)
		attHeader.Set("Content-Type", mimeType)
		attHeader.Set("Content-Transfer-Encoding", "base64")
		attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

		attPart, err := writer.CreatePart(attHeader)
		if err != nil {
			return "", err
		}
		encoded := base64.StdEncoding.EncodeToString(content)
		if _, err := attPart.Write([]byte(encoded)); err != nil {
			return "", fmt.Errorf("failed to write attachment %s: %w", filename, err)
		}
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize mime message: %w", err)
	}
	return buf.String(), nil
}
