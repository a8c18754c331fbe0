package model

import "time"

// Identity is the current signed-in user as seen by every subsystem. The UID
// is the ownership key for per-user carts and the author attribution on
// feed messages.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name,omitempty"`
	Photo       string `json:"photo,omitempty"`
	Email       string `json:"email,omitempty"`
	Anonymous   bool   `json:"anonymous"`
	Admin       bool   `json:"admin"`
}

// Account is a credentialed user row in the accounts database.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Photo        string    `json:"photo"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionData is what a session token resolves to.
type SessionData struct {
	Identity  Identity  `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
