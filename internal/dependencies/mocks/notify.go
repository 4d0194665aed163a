package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/coursehub/internal/notify"
)

// MockSender records sent messages and can be told to fail
type MockSender struct {
	mu   sync.Mutex
	sent []notify.Message

	// Err, when set, is returned from Send and the message is not recorded
	Err error
}

// Ensure MockSender implements Sender
var _ notify.Sender = (*MockSender)(nil)

// NewMockSender creates a MockSender
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send records the message or returns the configured error
func (s *MockSender) Send(ctx context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.sent = append(s.sent, msg)
	return nil
}

// Sent returns a copy of all recorded messages
func (s *MockSender) Sent() []notify.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notify.Message, len(s.sent))
	copy(out, s.sent)
	return out
}

// Last returns the most recent message, or false if none
func (s *MockSender) Last() (notify.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return notify.Message{}, false
	}
	return s.sent[len(s.sent)-1], true
}

// FailWith makes subsequent sends return err (nil restores success)
func (s *MockSender) FailWith(err error) {
	s.mu.Lock()
	s.Err = err
	s.mu.Unlock()
}
