package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"ninelives-store-api/internal/model"
)

// MySQLAccountRepository implements AccountRepository using MySQL.
type MySQLAccountRepository struct {
	db *sql.DB
}

// NewMySQLAccountRepository creates a new MySQL account repository and
// ensures the accounts table exists.
func NewMySQLAccountRepository(db *sql.DB) (*MySQLAccountRepository, error) {
	r := &MySQLAccountRepository{db: db}
	if err := r.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create accounts table: %w", err)
	}
	return r, nil
}

func (r *MySQLAccountRepository) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS accounts (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		display_name VARCHAR(255) NOT NULL DEFAULT '',
		photo VARCHAR(512) NOT NULL DEFAULT '',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	_, err := r.db.Exec(query)
	return err
}

// GetAccountByEmail finds an account by email address.
func (r *MySQLAccountRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `
		SELECT id, email, password_hash, display_name, photo, created_at
		FROM accounts
		WHERE email = ? AND is_active = 1
		LIMIT 1`

	var acc model.Account
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&acc.ID,
		&acc.Email,
		&acc.PasswordHash,
		&acc.DisplayName,
		&acc.Photo,
		&acc.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// CreateAccount inserts a new account with a pre-hashed password.
func (r *MySQLAccountRepository) CreateAccount(ctx context.Context, email, passwordHash, displayName, photo string) (int64, error) {
	query := `
		INSERT INTO accounts (email, password_hash, display_name, photo)
		VALUES (?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, email, passwordHash, displayName, photo)
	if err != nil {
		return 0, fmt.Errorf("failed to create account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	log.Printf("[AccountRepository] Created account id=%d email=%s", id, email)
	return id, nil
}

// Ping reports whether the accounts database is reachable.
func (r *MySQLAccountRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Ensure MySQLAccountRepository implements AccountRepository
var _ AccountRepository = (*MySQLAccountRepository)(nil)
