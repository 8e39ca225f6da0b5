package account

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]*Account, error) {
	return s.repo.List(ctx)
}

// ByDepartment returns the accounts mapped to a department, matched
// case-insensitively.
func (s *Service) ByDepartment(ctx context.Context, name string) ([]*Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByDepartment(accounts, name), nil
}

// CheckCredentials verifies a username/password pair. A nil account with
// a nil error means the credentials did not match; callers must not learn
// whether the username or the password was wrong.
func (s *Service) CheckCredentials(ctx context.Context, username, password string) (*Account, error) {
	a, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	return a, nil
}

// HashPassword produces a bcrypt hash for seeding and account creation.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
