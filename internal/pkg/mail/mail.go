package mail

import (
	"context"
	"io"
)

// Message is a single outgoing email.
type Message struct {
	// ID becomes the Message-ID header. Left empty, no header is written.
	ID string
	// From overrides the configured sender.
	From     string
	To       []string
	Subject  string
	TextBody string
	// HTMLBody is sent as an alternative part next to TextBody.
	HTMLBody string
}

// Mail sends messages through a provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
