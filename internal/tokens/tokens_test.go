package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()
	secret := []byte("test-secret")

	token, err := NewAccessToken(secret, 42, "admin", time.Now().Add(time.Minute))
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := NewAccessToken([]byte("right"), 1, "user", time.Now().Add(time.Minute))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(token, []byte("wrong"))
	require.Error(t, err)
}

func TestAccessTokenExpired(t *testing.T) {
	t.Parallel()
	secret := []byte("test-secret")

	token, err := NewAccessToken(secret, 1, "user", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(token, secret)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestRefreshTokensCarryUniqueID(t *testing.T) {
	t.Parallel()
	secret := []byte("test-secret")
	exp := time.Now().Add(time.Hour)

	first, err := NewRefreshToken(secret, 1, "user", exp)
	require.NoError(t, err)
	second, err := NewRefreshToken(secret, 1, "user", exp)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	claims, err := RefreshClaimsFromToken(first, secret)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
}
