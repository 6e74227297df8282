package mail

import (
	"context"
	"fmt"
	netmail "net/mail"

	"github.com/go-playground/validator/v10"
)

// Sender delivers a message and reports one Status per recipient.
type Sender interface {
	Send(ctx context.Context, msg Message) ([]Status, error)
}

type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email" validate:"required,email"`
}

// String formats the address as `"Name" <email>`, or the bare email when
// there is no name.
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return (&netmail.Address{Name: a.Name, Address: a.Email}).String()
}

type Message struct {
	From     Address `json:"from"`
	ReplyTo  string  `json:"reply_to,omitempty" validate:"omitempty,email"`
	To       Address `json:"to"`
	Subject  string  `json:"subject" validate:"required"`
	HTMLBody string  `json:"-" validate:"required"`
	Tag      string  `json:"tag,omitempty"`
}

var validate = validator.New()

func (m Message) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return nil
}

// Status is the provider's verdict for one recipient. An empty
// RejectReason means the provider accepted the message.
type Status struct {
	To           string `json:"to"`
	MessageID    string `json:"message_id,omitempty"`
	RejectReason string `json:"reject_reason,omitempty"`
}

// Accepted reports whether a send succeeded: no error, at least one status
// and no reject reason on the first one.
func Accepted(statuses []Status, err error) error {
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		return fmt.Errorf("%w: provider returned no recipient status", ErrSendFailed)
	}
	if reason := statuses[0].RejectReason; reason != "" {
		return fmt.Errorf("%w: %s: %s", ErrRejected, statuses[0].To, reason)
	}
	return nil
}
