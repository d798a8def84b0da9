package domain

import (
	"time"
)

// User represents a registered user in the system.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Verification is the single outstanding email-verification record for a
// user. At most one exists per user; it is deleted when the code is redeemed.
type Verification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Code      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
