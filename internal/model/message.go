package model

import "time"

// Message types.
const (
	MessageTypeUser         = "user"
	MessageTypeAnnouncement = "announcement"
)

// Message is one entry in the community feed. Messages are append-only:
// clients never mutate or delete them, and the store assigns CreatedAt.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	User      string    `json:"user"`
	UID       string    `json:"uid,omitempty"`
	Photo     string    `json:"photo,omitempty"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
