package domain

import "time"

// User represents an account that owns notes.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
