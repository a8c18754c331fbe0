package repository

import (
	"context"

	"ninelives-store-api/internal/model"
)

// AccountRepository defines credentialed identity data access methods.
type AccountRepository interface {
	// GetAccountByEmail finds an account by email address.
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)

	// CreateAccount inserts a new account with a pre-hashed password.
	CreateAccount(ctx context.Context, email, passwordHash, displayName, photo string) (int64, error)

	// Ping reports whether the accounts database is reachable.
	Ping(ctx context.Context) error
}

// RepositoryError is a sentinel error type for repository failures.
type RepositoryError string

func (e RepositoryError) Error() string { return string(e) }

const (
	// ErrAccountNotFound indicates no account exists for the given email.
	ErrAccountNotFound RepositoryError = "account not found"
)
