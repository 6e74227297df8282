package mail_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Afrawles/asanamailer/internal/mail"
)

func validMessage() mail.Message {
	return mail.Message{
		From:     mail.Address{Name: "Asana Mailer", Email: "mailer@example.com"},
		To:       mail.Address{Email: "me@example.com"},
		Subject:  "Asana tasks for 05 Mar 2024",
		HTMLBody: "<p>hi</p>",
	}
}

func TestAddress_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "me@example.com", mail.Address{Email: "me@example.com"}.String())
	assert.Equal(t, `"Me Too" <me@example.com>`, mail.Address{Name: "Me Too", Email: "me@example.com"}.String())
}

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*mail.Message)
	}{
		{"missing recipient", func(m *mail.Message) { m.To.Email = "" }},
		{"invalid recipient", func(m *mail.Message) { m.To.Email = "nope" }},
		{"missing sender", func(m *mail.Message) { m.From.Email = "" }},
		{"invalid reply-to", func(m *mail.Message) { m.ReplyTo = "@bad" }},
		{"missing subject", func(m *mail.Message) { m.Subject = "" }},
		{"missing body", func(m *mail.Message) { m.HTMLBody = "" }},
	}

	require.NoError(t, validMessage().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := validMessage()
			tt.mutate(&msg)
			assert.ErrorIs(t, msg.Validate(), mail.ErrInvalidMessage)
		})
	}
}

func TestAccepted(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	tests := []struct {
		name     string
		statuses []mail.Status
		err      error
		want     error
	}{
		{"accepted", []mail.Status{{To: "a@b.c"}}, nil, nil},
		{"only first entry counts", []mail.Status{{To: "a@b.c"}, {To: "d@e.f", RejectReason: "spam"}}, nil, nil},
		{"send error", nil, boom, boom},
		{"no statuses", nil, nil, mail.ErrSendFailed},
		{"empty statuses", []mail.Status{}, nil, mail.ErrSendFailed},
		{"rejected", []mail.Status{{To: "a@b.c", RejectReason: "hard-bounce"}}, nil, mail.ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := mail.Accepted(tt.statuses, tt.err)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOutboxSender_Send(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "outbox")
	sender := mail.NewOutboxSender(dir)

	msg := validMessage()
	msg.Tag = "Asana Digest!"

	statuses, err := sender.Send(context.Background(), msg)
	require.NoError(t, err)
	require.NoError(t, mail.Accepted(statuses, err))
	require.Len(t, statuses, 1)
	assert.Equal(t, "me@example.com", statuses[0].To)
	assert.NotEmpty(t, statuses[0].MessageID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var htmlPath, jsonPath string
	for _, e := range entries {
		assert.Contains(t, e.Name(), "asana_digest")
		switch filepath.Ext(e.Name()) {
		case ".html":
			htmlPath = filepath.Join(dir, e.Name())
		case ".json":
			jsonPath = filepath.Join(dir, e.Name())
		}
	}

	body, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(body))

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Equal(t, statuses[0].MessageID, envelope["message_id"])
	assert.Equal(t, msg.Subject, envelope["subject"])
	assert.False(t, strings.Contains(string(raw), "<p>hi</p>"))
}

func TestOutboxSender_InvalidMessage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	msg := validMessage()
	msg.Subject = ""

	_, err := mail.NewOutboxSender(dir).Send(context.Background(), msg)
	assert.ErrorIs(t, err, mail.ErrInvalidMessage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
