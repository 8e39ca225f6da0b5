package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

// List returns every account with its email set merged on. A LEFT JOIN
// keeps accounts that have no notification address; they still exist for
// login even if alerts cannot reach them.
func (r *repoPG) List(ctx context.Context) ([]*Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.username, a.full_name, a.department, a.password_hash, e.email
		FROM account a
		LEFT JOIN account_email e ON e.account_id = a.id
		ORDER BY a.username, e.email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*Account)
	var order []*Account
	for rows.Next() {
		var id uuid.UUID
		var username, fullName, dept, pwHash string
		var email *string
		if err := rows.Scan(&id, &username, &fullName, &dept, &pwHash, &email); err != nil {
			return nil, err
		}
		a, ok := byID[id]
		if !ok {
			a = &Account{ID: id, Username: username, FullName: fullName, Department: dept, PasswordHash: pwHash}
			byID[id] = a
			order = append(order, a)
		}
		if email != nil && *email != "" {
			a.Emails = append(a.Emails, *email)
		}
	}
	return order, rows.Err()
}

func (r *repoPG) GetByUsername(ctx context.Context, username string) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, full_name, department, password_hash
		FROM account WHERE username = $1`, username).Scan(
		&a.ID, &a.Username, &a.FullName, &a.Department, &a.PasswordHash)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT email FROM account_email WHERE account_id = $1 ORDER BY email`, a.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		a.Emails = append(a.Emails, email)
	}
	return &a, rows.Err()
}
