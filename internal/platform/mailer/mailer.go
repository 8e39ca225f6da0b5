// Package mailer delivers alert emails over SMTP. Send never returns an
// error through the call stack: failures are reported in the Result so
// callers can continue with the next recipient.
package mailer

import (
	"sync"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"
)

// Result reports the outcome of a single send.
type Result struct {
	Success bool
	Mock    bool
	Err     error
}

// Sender is the notification channel the alert dispatcher writes to.
type Sender interface {
	Send(to, subject, text, html string) Result
}

// SMTPSender sends mail through an SMTP relay. When credentials are absent
// it runs in mock mode: sends are logged and reported successful, which
// keeps development environments working without a mail account.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	mock   bool
	log    zerolog.Logger
}

func NewSMTPSender(host string, port int, user, password, from string, logger zerolog.Logger) *SMTPSender {
	s := &SMTPSender{
		from: from,
		log:  logger,
	}
	if user == "" || password == "" {
		s.mock = true
		return s
	}
	s.dialer = gomail.NewDialer(host, port, user, password)
	return s
}

func (s *SMTPSender) Send(to, subject, text, html string) Result {
	if s.mock {
		s.log.Info().
			Str("to", to).
			Str("subject", subject).
			Msg("mock email send (SMTP credentials not configured)")
		return Result{Success: true, Mock: true}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)
	if html != "" {
		msg.AddAlternative("text/html", html)
	}

	if err := s.dialer.DialAndSend(msg); err != nil {
		s.log.Error().Err(err).Str("to", to).Msg("email send failed")
		return Result{Success: false, Err: err}
	}
	return Result{Success: true}
}

// SentMail records a single call to a MockSender.
type SentMail struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// MockSender is a test double for Sender.
type MockSender struct {
	mu      sync.Mutex
	sent    []SentMail
	FailFor map[string]error
}

func (m *MockSender) Send(to, subject, text, html string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailFor[to]; ok {
		return Result{Success: false, Err: err}
	}
	m.sent = append(m.sent, SentMail{To: to, Subject: subject, Text: text, HTML: html})
	return Result{Success: true}
}

// Sent returns a copy of recorded sends.
func (m *MockSender) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMail, len(m.sent))
	copy(out, m.sent)
	return out
}
