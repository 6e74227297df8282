package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSender delivers through Postmark's transactional API.
type PostmarkSender struct {
	client postmarkAPI
}

var _ Sender = (*PostmarkSender)(nil)

// NewPostmarkSender requires a server token; the account token is optional.
func NewPostmarkSender(serverToken, accountToken string) (*PostmarkSender, error) {
	if serverToken == "" {
		return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
	}
	return &PostmarkSender{client: postmark.NewClient(serverToken, accountToken)}, nil
}

func (s *PostmarkSender) Send(ctx context.Context, msg Message) ([]Status, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     msg.From.String(),
		ReplyTo:  msg.ReplyTo,
		To:       msg.To.String(),
		Subject:  msg.Subject,
		Tag:      msg.Tag,
		HTMLBody: msg.HTMLBody,
	})

	// A non-zero code is a provider verdict, not a transport failure. It
	// arrives in the body of a 200 or as an APIError on a 4xx.
	if resp.ErrorCode != 0 {
		return []Status{rejected(msg, resp.MessageID, resp.ErrorCode, resp.Message)}, nil
	}
	var apiErr postmark.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode != 0 {
		return []Status{rejected(msg, "", apiErr.ErrorCode, apiErr.Message)}, nil
	}
	if err != nil {
		return nil, errors.Join(ErrSendFailed, err)
	}

	to := resp.To
	if to == "" {
		to = msg.To.Email
	}
	return []Status{{To: to, MessageID: resp.MessageID}}, nil
}

func rejected(msg Message, messageID string, code int64, reason string) Status {
	return Status{
		To:           msg.To.Email,
		MessageID:    messageID,
		RejectReason: fmt.Sprintf("%d - %s", code, reason),
	}
}
