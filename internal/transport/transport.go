// Package transport delivers one-time passwords to customers over SMS or email.
//
// Dispatch is fire-and-continue: the flow controller logs a failed delivery
// and proceeds, so senders must never block conversation progress.
package transport

import "context"

// Sender dispatches a one-time password to a destination (email address or
// phone number, depending on the implementation).
type Sender interface {
	SendOTP(ctx context.Context, destination, code string) error
}

// MockSender records dispatched codes for tests.
type MockSender struct {
	Sent []SentOTP
	Err  error // returned from SendOTP when set
}

// SentOTP is one recorded dispatch.
type SentOTP struct {
	Destination string
	Code        string
}

// NewMockSender creates a mock sender with no scripted failure.
func NewMockSender() *MockSender {
	return &MockSender{}
}

// SendOTP records the dispatch and returns the scripted error, if any.
func (m *MockSender) SendOTP(ctx context.Context, destination, code string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentOTP{Destination: destination, Code: code})
	return nil
}
