package alert

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/neodose/neodose/internal/domain/account"
	"github.com/neodose/neodose/internal/platform/mailer"
)

// AccountDirectory is the department to recipients lookup the dispatcher
// routes through.
type AccountDirectory interface {
	ByDepartment(ctx context.Context, name string) ([]*account.Account, error)
}

// Dispatcher fans one message out to the deduplicated email set of a
// department. A failed send is logged and counted, never aborts the loop.
type Dispatcher struct {
	accounts AccountDirectory
	sender   mailer.Sender
	log      zerolog.Logger
}

func NewDispatcher(accounts AccountDirectory, sender mailer.Sender, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{accounts: accounts, sender: sender, log: logger}
}

// DispatchToDepartment sends one message to every distinct address mapped
// to the department and returns the number of successful sends.
func (d *Dispatcher) DispatchToDepartment(ctx context.Context, department, subject, text, html string) (int, error) {
	accounts, err := d.accounts.ByDepartment(ctx, department)
	if err != nil {
		return 0, err
	}

	emails := dedupeEmails(accounts)
	if len(emails) == 0 {
		d.log.Warn().Str("department", department).Msg("no alert recipients for department")
		return 0, nil
	}

	sent := 0
	for _, to := range emails {
		res := d.sender.Send(to, subject, text, html)
		if !res.Success {
			d.log.Error().Err(res.Err).Str("to", to).Str("department", department).
				Msg("alert email failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// dedupeEmails unions account email sets, keeping first-seen order. Two
// accounts sharing an address yield one send.
func dedupeEmails(accounts []*account.Account) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range accounts {
		for _, e := range a.Emails {
			if e == "" || seen[e] {
				continue
			}
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}
