// Package notify delivers out-of-band messages (password reset codes) to principals.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoRecipient is returned when a message has no destination address
var ErrNoRecipient = errors.New("notify: message has no recipient")

// Message is a plain-text notification addressed to a single principal
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages through some out-of-band channel
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
// Used for local development when no SMTP server is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message at info level
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	s.logger.InfoContext(ctx, "notification",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}
