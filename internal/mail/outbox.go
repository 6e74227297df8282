package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OutboxSender writes each message to a directory as an .html body plus a
// .json envelope instead of sending it. Every message is accepted.
type OutboxSender struct {
	dir string
	now func() time.Time
}

var _ Sender = (*OutboxSender)(nil)

func NewOutboxSender(dir string) *OutboxSender {
	return &OutboxSender{dir: dir, now: time.Now}
}

type envelope struct {
	MessageID string  `json:"message_id"`
	Timestamp string  `json:"timestamp"`
	From      Address `json:"from"`
	ReplyTo   string  `json:"reply_to,omitempty"`
	To        Address `json:"to"`
	Subject   string  `json:"subject"`
	Tag       string  `json:"tag,omitempty"`
}

func (o *OutboxSender) Send(ctx context.Context, msg Message) ([]Status, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(o.dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create directory: %w", ErrSendFailed, err)
	}

	now := o.now()
	id := uuid.NewString()

	identifier := msg.Tag
	if identifier == "" {
		identifier = msg.Subject
	}
	base := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405"), sanitizeFilename(identifier))

	if err := os.WriteFile(filepath.Join(o.dir, base+".html"), []byte(msg.HTMLBody), 0644); err != nil {
		return nil, fmt.Errorf("%w: failed to write HTML file: %w", ErrSendFailed, err)
	}

	data, err := json.MarshalIndent(envelope{
		MessageID: id,
		Timestamp: now.Format(time.RFC3339),
		From:      msg.From,
		ReplyTo:   msg.ReplyTo,
		To:        msg.To,
		Subject:   msg.Subject,
		Tag:       msg.Tag,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal envelope: %w", ErrSendFailed, err)
	}
	if err := os.WriteFile(filepath.Join(o.dir, base+".json"), data, 0644); err != nil {
		return nil, fmt.Errorf("%w: failed to write JSON file: %w", ErrSendFailed, err)
	}

	return []Status{{To: msg.To.Email, MessageID: id}}, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
