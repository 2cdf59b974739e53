package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("test-jwt-secret")
	refreshSecret = []byte("test-refresh-secret")
)

func TestNewAccessToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	userID := uuid.NewString()
	token, exp, err := NewAccessToken(accessSecret, userID, "a@b.io", 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := AccessClaimsFromToken(token, accessSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, "a@b.io", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestNewRefreshToken_HasJTI(t *testing.T) {
	t.Parallel()

	userID := uuid.NewString()
	token, jti, _, err := NewRefreshToken(refreshSecret, userID, time.Hour)
	require.NoError(t, err)

	claims, err := RefreshClaimsFromToken(token, refreshSecret)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, userID, claims.Subject)
}

func TestClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	token, _, err := NewAccessToken(accessSecret, "u", "", time.Minute)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(token, []byte("other"))
	assert.Error(t, err)

	_, err = AccessClaimsFromToken("garbage", accessSecret)
	assert.Error(t, err)

	expired, _, err := NewAccessToken(accessSecret, "u", "", -time.Minute)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(expired, accessSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "u"})
	signed, err := none.SignedString(accessSecret)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(signed, accessSecret)
	assert.Error(t, err)
}

func TestSha256Hex_Stable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Sha256Hex("abc"), Sha256Hex("abc"))
	assert.Len(t, Sha256Hex("abc"), 64)
	assert.NotEqual(t, Sha256Hex("abc"), Sha256Hex("abd"))
}
