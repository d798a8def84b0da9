package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the cost factor used for password hashing in production.
const DefaultBcryptCost = 12

// PasswordHasher hashes and verifies user passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the given bcrypt cost. A cost of
// zero falls back to DefaultBcryptCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of the given plaintext password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether the plaintext password matches the stored hash.
// A malformed or truncated hash yields false rather than an error, so a
// corrupted credential row behaves like a wrong password.
func (h *PasswordHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
