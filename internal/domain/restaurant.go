package domain

import (
	"time"
)

// Restaurant represents a restaurant owned by an OWNER-role user.
type Restaurant struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Address    string    `json:"address"`
	CoverImage string    `json:"cover_image,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
