// Package account holds care-team accounts: login credentials and the
// department to email-set mapping used for alert routing.
package account

import (
	"strings"

	"github.com/google/uuid"
)

// Account is one care-team member. Emails is the merged set of that
// member's notification addresses.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Department   string    `json:"department"`
	Emails       []string  `json:"emails"`
	PasswordHash string    `json:"-"`
}

// FilterByDepartment keeps accounts whose department matches name.
// Department names compare case-insensitively throughout.
func FilterByDepartment(accounts []*Account, name string) []*Account {
	var out []*Account
	for _, a := range accounts {
		if strings.EqualFold(a.Department, name) {
			out = append(out, a)
		}
	}
	return out
}
