package alert

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/neodose/neodose/internal/domain/account"
	"github.com/neodose/neodose/internal/platform/mailer"
)

func TestDispatchDeduplicatesRecipients(t *testing.T) {
	sender := &mailer.MockSender{}
	d := NewDispatcher(&mockDirectory{accounts: []*account.Account{
		{Username: "a", Department: "NICU A", Emails: []string{"shared@example.org"}},
		{Username: "b", Department: "NICU A", Emails: []string{"shared@example.org", "b@example.org"}},
	}}, sender, zerolog.Nop())

	sent, err := d.DispatchToDepartment(context.Background(), "NICU A", "subj", "body", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected 2 sends, got %d", sent)
	}

	mails := sender.Sent()
	if len(mails) != 2 || mails[0].To != "shared@example.org" || mails[1].To != "b@example.org" {
		t.Fatalf("unexpected recipients %+v", mails)
	}
}

func TestDispatchContinuesPastFailure(t *testing.T) {
	sender := &mailer.MockSender{FailFor: map[string]error{"a@example.org": fmt.Errorf("bounce")}}
	d := NewDispatcher(&mockDirectory{accounts: []*account.Account{
		{Username: "a", Department: "NICU A", Emails: []string{"a@example.org"}},
		{Username: "b", Department: "NICU A", Emails: []string{"b@example.org"}},
	}}, sender, zerolog.Nop())

	sent, err := d.DispatchToDepartment(context.Background(), "NICU A", "subj", "body", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 successful send, got %d", sent)
	}
	if mails := sender.Sent(); len(mails) != 1 || mails[0].To != "b@example.org" {
		t.Fatalf("expected delivery to continue past the failure, got %+v", mails)
	}
}

func TestDispatchNoRecipients(t *testing.T) {
	sender := &mailer.MockSender{}
	d := NewDispatcher(&mockDirectory{}, sender, zerolog.Nop())

	sent, err := d.DispatchToDepartment(context.Background(), "NICU C", "subj", "body", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 0 || len(sender.Sent()) != 0 {
		t.Fatalf("expected no sends, got %d", sent)
	}
}
