package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/platefull/platefull/pkg/database"
	apperrors "github.com/platefull/platefull/pkg/errors"
	"github.com/platefull/platefull/pkg/pagination"

	"github.com/platefull/platefull/internal/domain"
)

const restaurantColumns = "id, owner_id, name, slug, address, cover_image, created_at, updated_at"

// RestaurantRepository implements repository.RestaurantRepository using PostgreSQL.
type RestaurantRepository struct {
	db database.DBTX
}

// NewRestaurantRepository creates a new PostgreSQL-backed restaurant repository.
func NewRestaurantRepository(db database.DBTX) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

// Create inserts a new restaurant into the database.
func (r *RestaurantRepository) Create(ctx context.Context, rst *domain.Restaurant) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO restaurants (id, owner_id, name, slug, address, cover_image, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rst.ID, rst.OwnerID, rst.Name, rst.Slug, rst.Address, rst.CoverImage, rst.CreatedAt, rst.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("restaurant", "slug", rst.Slug)
		}
		return fmt.Errorf("insert restaurant: %w", err)
	}

	return nil
}

// GetByID retrieves a restaurant by its ID.
func (r *RestaurantRepository) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`
	return scanRestaurantRow(r.db.QueryRow(ctx, query, id))
}

// List returns a page of restaurants ordered by creation time, newest first,
// together with the total count.
func (r *RestaurantRepository) List(ctx context.Context, params pagination.Params) ([]domain.Restaurant, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM restaurants`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count restaurants: %w", err)
	}

	query := `SELECT ` + restaurantColumns + ` FROM restaurants ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, params.PerPage, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	restaurants, err := collectRestaurants(rows)
	if err != nil {
		return nil, 0, err
	}

	return restaurants, total, nil
}

// ListByOwner returns all restaurants owned by the given user.
func (r *RestaurantRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list restaurants by owner: %w", err)
	}
	defer rows.Close()

	return collectRestaurants(rows)
}

// Update modifies an existing restaurant in the database.
func (r *RestaurantRepository) Update(ctx context.Context, rst *domain.Restaurant) error {
	rst.UpdatedAt = time.Now().UTC()

	ct, err := r.db.Exec(ctx,
		`UPDATE restaurants
		 SET name = $1, slug = $2, address = $3, cover_image = $4, updated_at = $5
		 WHERE id = $6`,
		rst.Name, rst.Slug, rst.Address, rst.CoverImage, rst.UpdatedAt, rst.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("restaurant", "slug", rst.Slug)
		}
		return fmt.Errorf("update restaurant: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("restaurant", rst.ID)
	}

	return nil
}

// Delete removes a restaurant from the database by its ID.
func (r *RestaurantRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("restaurant", id)
	}

	return nil
}

func scanRestaurantRow(row pgx.Row) (*domain.Restaurant, error) {
	var rst domain.Restaurant
	err := row.Scan(&rst.ID, &rst.OwnerID, &rst.Name, &rst.Slug, &rst.Address, &rst.CoverImage, &rst.CreatedAt, &rst.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan restaurant: %w", err)
	}
	return &rst, nil
}

func collectRestaurants(rows pgx.Rows) ([]domain.Restaurant, error) {
	restaurants := []domain.Restaurant{}
	for rows.Next() {
		var rst domain.Restaurant
		if err := rows.Scan(&rst.ID, &rst.OwnerID, &rst.Name, &rst.Slug, &rst.Address, &rst.CoverImage, &rst.CreatedAt, &rst.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan restaurant row: %w", err)
		}
		restaurants = append(restaurants, rst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restaurant rows: %w", err)
	}
	return restaurants, nil
}
