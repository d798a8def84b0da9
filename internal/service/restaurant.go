package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/platefull/platefull/pkg/errors"
	"github.com/platefull/platefull/pkg/pagination"
	"github.com/platefull/platefull/pkg/slug"

	"github.com/platefull/platefull/internal/domain"
	"github.com/platefull/platefull/internal/repository"
)

// RestaurantService implements the business logic for restaurant management.
type RestaurantService struct {
	restaurantRepo repository.RestaurantRepository
	logger         *slog.Logger
}

// NewRestaurantService creates a new restaurant service.
func NewRestaurantService(restaurantRepo repository.RestaurantRepository, logger *slog.Logger) *RestaurantService {
	return &RestaurantService{
		restaurantRepo: restaurantRepo,
		logger:         logger,
	}
}

// CreateRestaurantInput holds the parameters for creating a restaurant.
type CreateRestaurantInput struct {
	Name       string `validate:"required"`
	Address    string `validate:"required"`
	CoverImage string `validate:"-"`
}

// UpdateRestaurantInput holds the parameters for editing a restaurant. Nil
// fields are left unchanged.
type UpdateRestaurantInput struct {
	Name       *string `validate:"omitempty,min=1"`
	Address    *string `validate:"omitempty,min=1"`
	CoverImage *string `validate:"-"`
}

// Create registers a new restaurant for the given owner. The slug is
// derived from the name.
func (s *RestaurantService) Create(ctx context.Context, ownerID string, input CreateRestaurantInput) (*domain.Restaurant, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	restaurant := &domain.Restaurant{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Name:       input.Name,
		Slug:       slug.Generate(input.Name),
		Address:    input.Address,
		CoverImage: input.CoverImage,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.restaurantRepo.Create(ctx, restaurant); err != nil {
		return nil, fmt.Errorf("create restaurant: %w", err)
	}

	s.logger.InfoContext(ctx, "restaurant created",
		slog.String("restaurant_id", restaurant.ID),
		slog.String("owner_id", ownerID),
		slog.String("slug", restaurant.Slug),
	)

	return restaurant, nil
}

// Get retrieves a restaurant by its ID.
func (s *RestaurantService) Get(ctx context.Context, id string) (*domain.Restaurant, error) {
	restaurant, err := s.restaurantRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("restaurant", id)
		}
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return restaurant, nil
}

// List returns a page of restaurants.
func (s *RestaurantService) List(ctx context.Context, params pagination.Params) (*pagination.Result[domain.Restaurant], error) {
	restaurants, total, err := s.restaurantRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	result := pagination.NewResult(restaurants, total, params)
	return &result, nil
}

// ListByOwner returns all restaurants owned by the given user.
func (s *RestaurantService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Restaurant, error) {
	restaurants, err := s.restaurantRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list restaurants by owner: %w", err)
	}
	return restaurants, nil
}

// Update edits a restaurant. Only the owner may edit; a renamed restaurant
// gets a fresh slug.
func (s *RestaurantService) Update(ctx context.Context, ownerID, restaurantID string, input UpdateRestaurantInput) (*domain.Restaurant, error) {
	restaurant, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("restaurant", restaurantID)
		}
		return nil, fmt.Errorf("get restaurant for update: %w", err)
	}

	if restaurant.OwnerID != ownerID {
		return nil, apperrors.Forbidden("you do not own this restaurant")
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}

	if input.Name != nil {
		restaurant.Name = *input.Name
		restaurant.Slug = slug.Generate(*input.Name)
	}
	if input.Address != nil {
		restaurant.Address = *input.Address
	}
	if input.CoverImage != nil {
		restaurant.CoverImage = *input.CoverImage
	}

	if err := s.restaurantRepo.Update(ctx, restaurant); err != nil {
		return nil, fmt.Errorf("update restaurant: %w", err)
	}

	s.logger.InfoContext(ctx, "restaurant updated",
		slog.String("restaurant_id", restaurant.ID),
		slog.String("owner_id", ownerID),
	)

	return restaurant, nil
}

// Delete removes a restaurant. Only the owner may delete.
func (s *RestaurantService) Delete(ctx context.Context, ownerID, restaurantID string) error {
	restaurant, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("restaurant", restaurantID)
		}
		return fmt.Errorf("get restaurant for delete: %w", err)
	}

	if restaurant.OwnerID != ownerID {
		return apperrors.Forbidden("you do not own this restaurant")
	}

	if err := s.restaurantRepo.Delete(ctx, restaurantID); err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}

	s.logger.InfoContext(ctx, "restaurant deleted",
		slog.String("restaurant_id", restaurantID),
		slog.String("owner_id", ownerID),
	)

	return nil
}
