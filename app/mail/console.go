package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"
)

// ConsoleSender writes messages to the log instead of delivering them and
// keeps a copy of everything sent.
type ConsoleSender struct {
	log           *slog.Logger
	disableOutput bool

	mu   sync.Mutex
	sent []Message
}

var _ Sender = (*ConsoleSender)(nil)

func NewConsoleSender(log *slog.Logger) *ConsoleSender {
	return &ConsoleSender{log: log}
}

// NewConsoleSenderMock records messages without logging them.
func NewConsoleSenderMock() *ConsoleSender {
	return &ConsoleSender{disableOutput: true}
}

func (s *ConsoleSender) Send(_ context.Context, from mail.Address, msg *Message) error {
	if !s.disableOutput && s.log != nil {
		s.log.Info("email", slog.String("message", formatMessage(from, msg)))
	}
	s.mu.Lock()
	s.sent = append(s.sent, *msg)
	s.mu.Unlock()
	return nil
}

// Sent returns a copy of every message sent so far.
func (s *ConsoleSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

func (s *ConsoleSender) Reset() {
	s.mu.Lock()
	s.sent = nil
	s.mu.Unlock()
}

func formatMessage(from mail.Address, msg *Message) string {
	body := new(strings.Builder)
	_, _ = fmt.Fprintf(body, "From: %s\r\n", from.String())
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	if msg.ReplyTo != nil {
		_, _ = fmt.Fprintf(body, "Reply-To: %s\r\n", msg.ReplyTo.String())
	}
	_, _ = fmt.Fprint(body, "\r\n")
	_, _ = fmt.Fprint(body, msg.Text)
	return body.String()
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
