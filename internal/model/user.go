package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a locally registered account (SQL data source only)
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session maps an opaque cookie token to a user until it expires
type Session struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}
