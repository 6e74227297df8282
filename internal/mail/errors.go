package mail

import "errors"

var (
	ErrInvalidConfig  = errors.New("mail: invalid config")
	ErrInvalidMessage = errors.New("mail: invalid message")
	ErrSendFailed     = errors.New("mail: failed to send email")
	ErrRejected       = errors.New("mail: email rejected")
)
