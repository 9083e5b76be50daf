package middleware

import (
	"testing"
	"time"

	"parcel-delivery-api/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens() *TokenService {
	return NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

var testUser = &models.User{ID: "u-1", Email: "a@x.io", Role: models.RoleAdmin}

func TestIssue_DistinctTokensSameUser(t *testing.T) {
	ts := newTestTokens()
	pair, err := ts.Issue(testUser)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	access, err := ts.Verify(pair.Access, AccessToken)
	require.NoError(t, err)
	refresh, err := ts.Verify(pair.Refresh, RefreshToken)
	require.NoError(t, err)

	for _, c := range []*Claims{access, refresh} {
		assert.Equal(t, "u-1", c.UserID)
		assert.Equal(t, models.RoleAdmin, c.Role)
		assert.Equal(t, "a@x.io", c.Email)
		assert.NotEmpty(t, c.ID)
	}
	assert.NotEqual(t, access.ID, refresh.ID)
	assert.Equal(t, 15*time.Minute, access.ExpiresAt.Sub(access.IssuedAt.Time))
	assert.Equal(t, 7*24*time.Hour, refresh.ExpiresAt.Sub(refresh.IssuedAt.Time))
}

func TestVerify_WrongSecretIsInvalid(t *testing.T) {
	ts := newTestTokens()
	pair, err := ts.Issue(testUser)
	require.NoError(t, err)

	_, err = ts.Verify(pair.Access, RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = ts.Verify(pair.Refresh, AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = ts.Verify("not-a-jwt", AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_ExpiredIsDistinct(t *testing.T) {
	issued := time.Now().Add(-time.Hour)
	ts := newTestTokens().WithClock(func() time.Time { return issued })
	pair, err := ts.Issue(testUser)
	require.NoError(t, err)

	ts.WithClock(time.Now)
	_, err = ts.Verify(pair.Access, AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// the refresh token from the same pair is still valid
	_, err = ts.Verify(pair.Refresh, RefreshToken)
	assert.NoError(t, err)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	ts := newTestTokens()
	claims := Claims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = ts.Verify(tok, AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ts.Verify(none, AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefresh_KeepsClaimSet(t *testing.T) {
	ts := newTestTokens()
	pair, err := ts.Issue(testUser)
	require.NoError(t, err)

	access, refreshClaims, err := ts.Refresh(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, "u-1", refreshClaims.UserID)

	c, err := ts.Verify(access, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.UserID)
	assert.Equal(t, models.RoleAdmin, c.Role)
	assert.Equal(t, "a@x.io", c.Email)

	_, _, err = ts.Refresh(pair.Access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
