package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/platefull/platefull/pkg/database"
	apperrors "github.com/platefull/platefull/pkg/errors"
	"github.com/platefull/platefull/pkg/pagination"

	"github.com/platefull/platefull/internal/domain"
)

const userColumns = "id, email, password_hash, role, verified, created_at, updated_at"

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithVerification inserts the user and their verification record in
// one transaction. Either both rows land or neither does.
func (r *UserRepository) CreateWithVerification(ctx context.Context, u *domain.User, v *domain.Verification) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperrors.TransactionFailure(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, role, verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.PasswordHash, u.Role, u.Verified, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO verifications (id, user_id, code, created_at)
		 VALUES ($1, $2, $3, $4)`,
		v.ID, v.UserID, v.Code, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.TransactionFailure(err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.db.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.db.QueryRow(ctx, query, email))
}

// List returns a page of users ordered by creation time, newest first.
func (r *UserRepository) List(ctx context.Context, params pagination.Params) ([]domain.User, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, params.PerPage, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Verified, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}

	return users, total, nil
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	ct, err := r.db.Exec(ctx,
		`UPDATE users
		 SET email = $1, password_hash = $2, role = $3, verified = $4, updated_at = $5
		 WHERE id = $6`,
		u.Email, u.PasswordHash, u.Role, u.Verified, u.UpdatedAt, u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// UpdateWithVerification modifies the user and, when a new verification is
// given, replaces any outstanding verification record in the same
// transaction.
func (r *UserRepository) UpdateWithVerification(ctx context.Context, u *domain.User, v *domain.Verification) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperrors.TransactionFailure(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	u.UpdatedAt = time.Now().UTC()

	ct, err := tx.Exec(ctx,
		`UPDATE users
		 SET email = $1, password_hash = $2, role = $3, verified = $4, updated_at = $5
		 WHERE id = $6`,
		u.Email, u.PasswordHash, u.Role, u.Verified, u.UpdatedAt, u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	if v != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM verifications WHERE user_id = $1`, u.ID); err != nil {
			return fmt.Errorf("delete old verification: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO verifications (id, user_id, code, created_at)
			 VALUES ($1, $2, $3, $4)`,
			v.ID, v.UserID, v.Code, v.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert verification: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.TransactionFailure(err)
	}

	return nil
}

// ConfirmByCode marks the owner of the verification code as verified and
// burns the code. Both writes commit together, so a redeemed code can never
// leave the user unverified.
func (r *UserRepository) ConfirmByCode(ctx context.Context, code string) (*domain.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, apperrors.TransactionFailure(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		SELECT u.id, u.email, u.password_hash, u.role, u.verified, u.created_at, u.updated_at
		FROM verifications v
		JOIN users u ON u.id = v.user_id
		WHERE v.code = $1`

	user, err := scanUserRow(tx.QueryRow(ctx, query, code))
	if err != nil {
		return nil, err
	}

	user.Verified = true
	user.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx,
		`UPDATE users SET verified = true, updated_at = $1 WHERE id = $2`,
		user.UpdatedAt, user.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("mark user verified: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM verifications WHERE code = $1`, code); err != nil {
		return nil, fmt.Errorf("delete verification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.TransactionFailure(err)
	}

	return user, nil
}

// scanUserRow scans a single user row, mapping pgx.ErrNoRows to ErrNotFound.
func scanUserRow(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Verified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
