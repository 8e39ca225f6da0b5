package mailer

import (
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func TestSMTPSender_MockModeWithoutCredentials(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "", "", "alerts@example.com", zerolog.New(os.Stderr))

	res := s.Send("doctor@example.com", "subject", "body", "")
	if !res.Success {
		t.Error("expected mock send to succeed")
	}
	if !res.Mock {
		t.Error("expected mock flag to be set")
	}
}

func TestMockSender_RecordsAndFails(t *testing.T) {
	m := &MockSender{FailFor: map[string]error{"bad@example.com": errors.New("relay refused")}}

	if res := m.Send("ok@example.com", "s", "t", ""); !res.Success {
		t.Error("expected send to succeed")
	}
	if res := m.Send("bad@example.com", "s", "t", ""); res.Success || res.Err == nil {
		t.Error("expected configured failure")
	}
	if len(m.Sent()) != 1 {
		t.Errorf("expected 1 recorded send, got %d", len(m.Sent()))
	}
}
