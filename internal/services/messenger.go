package services

import (
	"context"
	"log"
)

// Messenger delivers outbound messages for one bot persona. Delivery is
// fire-and-forget relative to the state machine: callers log failures and
// never roll back committed state.
type Messenger interface {
	SendText(ctx context.Context, to, message string) error
	SendDocument(ctx context.Context, to, link, filename, caption string) error
}

// LogMessenger only logs outbound messages. It stands in for a real provider
// when no credentials are configured, so local development still works.
type LogMessenger struct{}

// NewLogMessenger creates the logging-only sender.
func NewLogMessenger() *LogMessenger {
	return &LogMessenger{}
}

func (m *LogMessenger) SendText(_ context.Context, to, message string) error {
	log.Printf("📤 [dry-run] WhatsApp text to %s:\n%s", to, message)
	return nil
}

func (m *LogMessenger) SendDocument(_ context.Context, to, link, filename, _ string) error {
	log.Printf("📤 [dry-run] WhatsApp document to %s: %s (%s)", to, link, filename)
	return nil
}
