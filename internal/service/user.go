package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	apperrors "github.com/platefull/platefull/pkg/errors"
	"github.com/platefull/platefull/pkg/pagination"
	pkgvalidator "github.com/platefull/platefull/pkg/validator"

	"github.com/platefull/platefull/internal/auth"
	"github.com/platefull/platefull/internal/domain"
	"github.com/platefull/platefull/internal/event"
	"github.com/platefull/platefull/internal/repository"
)

// LoginLimiter throttles login attempts per key. A nil limiter disables
// throttling.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// UserService implements the business logic for accounts and authentication.
type UserService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
	jwt      *auth.JWTManager
	producer *event.Producer
	limiter  LoginLimiter
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	hasher *auth.PasswordHasher,
	jwt *auth.JWTManager,
	producer *event.Producer,
	limiter LoginLimiter,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		jwt:      jwt,
		producer: producer,
		limiter:  limiter,
		logger:   logger,
	}
}

// --- Input types ---

// RegisterInput holds the parameters for creating a new account.
type RegisterInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Role     string `validate:"omitempty,oneof=CLIENT OWNER DELIVERY"`
}

// LoginInput holds the parameters for user login. Key identifies the caller
// for rate limiting, typically the remote address.
type LoginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
	Key      string `validate:"-"`
}

// UpdateProfileInput holds the parameters for editing a profile. Nil fields
// are left unchanged.
type UpdateProfileInput struct {
	Email    *string `validate:"omitempty,email"`
	Password *string `validate:"omitempty,min=8"`
}

// --- Operations ---

// Register creates a new account along with its email verification record.
// The role defaults to CLIENT when empty.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := checkPasswordComplexity(input.Password); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = domain.RoleClient
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
		Verified:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	verification := &domain.Verification{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Code:      uuid.New().String(),
		CreatedAt: now,
	}

	if err := s.userRepo.CreateWithVerification(ctx, user, verification); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user, verification.Code); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("role", user.Role),
	)

	return user, nil
}

// Login authenticates a user with email and password, returning a signed
// access token. Unknown emails and wrong passwords produce the same error
// so callers cannot probe which accounts exist.
func (s *UserService) Login(ctx context.Context, input LoginInput) (string, error) {
	if err := validateInput(input); err != nil {
		return "", err
	}

	if s.limiter != nil && input.Key != "" {
		if !s.limiter.Allow(ctx, input.Key) {
			s.logger.WarnContext(ctx, "login rate limit exceeded",
				slog.String("key", input.Key),
			)
			return "", apperrors.Unauthorized("too many login attempts, try again later")
		}
	}

	email := normalizeEmail(input.Email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", apperrors.Unauthorized("invalid email or password")
	}

	if !s.hasher.Verify(user.PasswordHash, input.Password) {
		return "", apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.jwt.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return token, nil
}

// VerifyEmail redeems a verification code, marking the owning account as
// verified and burning the code.
func (s *UserService) VerifyEmail(ctx context.Context, code string) (*domain.User, error) {
	if code == "" {
		return nil, apperrors.InvalidInput("verification code is required")
	}

	user, err := s.userRepo.ConfirmByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidInput("invalid verification code")
		}
		return nil, fmt.Errorf("confirm verification code: %w", err)
	}

	// Publish verification event (non-blocking on failure).
	if err := s.producer.PublishUserVerified(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.verified event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "email verified",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// GetProfile retrieves a user by their ID.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}

// ListUsers returns a page of users.
func (s *UserService) ListUsers(ctx context.Context, params pagination.Params) (*pagination.Result[domain.User], error) {
	users, total, err := s.userRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	result := pagination.NewResult(users, total, params)
	return &result, nil
}

// UpdateProfile changes a user's email or password. A changed email resets
// the verified flag and issues a fresh verification code in the same
// transaction as the profile update.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.Email != nil {
		normalized := normalizeEmail(*input.Email)
		input.Email = &normalized
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var verification *domain.Verification

	if input.Email != nil {
		if email := *input.Email; email != user.Email {
			user.Email = email
			user.Verified = false
			verification = &domain.Verification{
				ID:        uuid.New().String(),
				UserID:    user.ID,
				Code:      uuid.New().String(),
				CreatedAt: time.Now().UTC(),
			}
		}
	}

	if input.Password != nil {
		if err := checkPasswordComplexity(*input.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash new password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.UpdateWithVerification(ctx, user, verification); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	// Publish update event (non-blocking on failure).
	code := ""
	if verification != nil {
		code = verification.Code
	}
	if err := s.producer.PublishUserUpdated(ctx, user, code); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user profile updated",
		slog.String("user_id", user.ID),
		slog.Bool("email_changed", verification != nil),
	)

	return user, nil
}

// --- Helpers ---

// normalizeEmail lowercases and trims an email address so lookups are
// case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateInput runs struct-tag validation and converts failures into the
// invalid-input error family.
func validateInput(s any) error {
	if err := pkgvalidator.Validate(s); err != nil {
		var valErr *pkgvalidator.ValidationError
		if errors.As(err, &valErr) {
			return apperrors.InvalidInput(valErr.Error())
		}
		return err
	}
	return nil
}

// checkPasswordComplexity enforces the character-class rules the validator
// tags cannot express. Length is covered by the min tag on the input struct.
func checkPasswordComplexity(password string) error {
	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
