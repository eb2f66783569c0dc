package store

import (
	"errors"
	"time"
)

// ErrDuplicateEmail is returned by CreateUser when the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

type Board struct {
	ID        string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment belongs to exactly one board. BoardID is not a foreign key.
type Comment struct {
	ID        string
	BoardID   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionState is the per-session history bag.
type SessionState struct {
	ID         string
	URLHistory []string
	BoardPath  []string
}

// Session list names.
const (
	ListURLHistory = "urlHistory"
	ListBoardPath  = "boardPath"
)
