package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars!!"

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	m := NewJWTManager(testSecret, 0)

	token, err := m.Generate("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "user-123", claims.Subject)
	assert.NotNil(t, claims.IssuedAt)
}

func TestJWTManager_NoTTL_OmitsExpiry(t *testing.T) {
	m := NewJWTManager(testSecret, 0)

	token, err := m.Generate("user-123")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestJWTManager_TTL_SetsExpiry(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)

	token, err := m.Generate("user-123")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTManager_Validate_WrongSecret(t *testing.T) {
	m := NewJWTManager(testSecret, 0)
	other := NewJWTManager("another-secret-key-32-chars-long!!!", 0)

	token, err := m.Generate("user-123")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestJWTManager_Validate_Garbage(t *testing.T) {
	m := NewJWTManager(testSecret, 0)

	_, err := m.Validate("not.a.jwt")
	assert.Error(t, err)

	_, err = m.Validate("")
	assert.Error(t, err)
}

func TestJWTManager_Validate_RejectsNonHMAC(t *testing.T) {
	m := NewJWTManager(testSecret, 0)

	// alg=none tokens must never validate.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-123"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}

func TestJWTManager_Validate_MissingUserID(t *testing.T) {
	m := NewJWTManager(testSecret, 0)

	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{})
	token, err := raw.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}

func TestJWTManager_Validate_Expired(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)

	expired := &Claims{
		UserID: "user-123",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}
