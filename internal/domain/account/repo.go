package account

import "context"

// Repository defines the persistence interface for accounts. Emails are
// returned merged onto each account.
type Repository interface {
	List(ctx context.Context) ([]*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
}
