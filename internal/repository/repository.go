package repository

import (
	"context"

	"github.com/platefull/platefull/pkg/pagination"

	"github.com/platefull/platefull/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// CreateWithVerification inserts a new user together with their initial
	// email verification record in a single transaction.
	CreateWithVerification(ctx context.Context, user *domain.User, verification *domain.Verification) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns a page of users ordered by creation time.
	List(ctx context.Context, params pagination.Params) ([]domain.User, int, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// UpdateWithVerification modifies a user and replaces their outstanding
	// verification record in a single transaction. A nil verification leaves
	// existing records untouched.
	UpdateWithVerification(ctx context.Context, user *domain.User, verification *domain.Verification) error

	// ConfirmByCode marks the user owning the given verification code as
	// verified and deletes the code in a single transaction, returning the
	// updated user.
	ConfirmByCode(ctx context.Context, code string) (*domain.User, error)
}

// RestaurantRepository defines the interface for restaurant persistence operations.
type RestaurantRepository interface {
	// Create inserts a new restaurant into the store.
	Create(ctx context.Context, restaurant *domain.Restaurant) error

	// GetByID retrieves a restaurant by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Restaurant, error)

	// List returns a page of restaurants ordered by creation time, together
	// with the total count.
	List(ctx context.Context, params pagination.Params) ([]domain.Restaurant, int, error)

	// ListByOwner returns all restaurants owned by the given user.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Restaurant, error)

	// Update modifies an existing restaurant in the store.
	Update(ctx context.Context, restaurant *domain.Restaurant) error

	// Delete removes a restaurant from the store by its identifier.
	Delete(ctx context.Context, id string) error
}
