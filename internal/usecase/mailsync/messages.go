package mailsync

import (
	"encoding/json"
	"fmt"
	"strings"
)

var documentExtensions = []string{".pdf", ".doc", ".docx", ".ppt", ".pptx"}

type header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type partBody struct {
	AttachmentID string `json:"attachmentId"`
	Size         int    `json:"size"`
}

type part struct {
	Filename string   `json:"filename"`
	MimeType string   `json:"mimeType"`
	Body     partBody `json:"body"`
}

type payload struct {
	Headers []header `json:"headers"`
	Parts   []part   `json:"parts"`
}

// message is the subset of a fetched mail the sync reads. Both the raw Gmail
// shape (payload headers) and the flattened executor shape are accepted.
type message struct {
	ID          string  `json:"id"`
	MessageID   string  `json:"messageId"`
	Snippet     string  `json:"snippet"`
	MessageText string  `json:"messageText"`
	Subject     string  `json:"subject"`
	Sender      string  `json:"sender"`
	Date        string  `json:"messageTimestamp"`
	Payload     payload `json:"payload"`
}

func (m *message) id() string {
	if m.ID != "" {
		return m.ID
	}
	return m.MessageID
}

func (m *message) header(name string) string {
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func (m *message) subject() string {
	if s := m.header("Subject"); s != "" {
		return s
	}
	if m.Subject != "" {
		return m.Subject
	}
	return "(no subject)"
}

func (m *message) from() string {
	if s := m.header("From"); s != "" {
		return s
	}
	if m.Sender != "" {
		return m.Sender
	}
	return "unknown"
}

func (m *message) date() string {
	if s := m.header("Date"); s != "" {
		return s
	}
	return m.Date
}

func (m *message) body() string {
	if m.Snippet != "" {
		return m.Snippet
	}
	return m.MessageText
}

// documents counts attachments that look like course material.
func (m *message) documents() int {
	n := 0
	for _, p := range m.Payload.Parts {
		if p.Body.AttachmentID != "" && isDocument(p.Filename) {
			n++
		}
	}
	return n
}

func isDocument(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range documentExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// parseMessages reads the fetched mail list out of an executor payload.
func parseMessages(data any) ([]message, error) {
	if data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode fetch payload: %w", err)
	}

	var out struct {
		Emails   []message `json:"emails"`
		Messages []message `json:"messages"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode fetch payload: %w", err)
	}
	if len(out.Emails) > 0 {
		return out.Emails, nil
	}
	return out.Messages, nil
}
