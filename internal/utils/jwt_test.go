package utils_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/customer-directory/internal/config"
	"github.com/iliyamo/customer-directory/internal/model"
	"github.com/iliyamo/customer-directory/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       7 * 24 * time.Hour,
	}
}

var alice = &model.Customer{
	ID:           "01J8ZK5Q6M3C2B1A0Z9Y8X7W6V",
	Username:     "alice01",
	Email:        "a@x.com",
	PasswordHash: "$2a$10$hash",
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	svc := utils.NewTokenService(testConfig())

	tok, err := svc.IssueAccessToken(utils.ClaimsFor(alice))
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)

	claims, err := svc.VerifyAccessToken(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, utils.Claims{ID: alice.ID, Username: "alice01", Email: "a@x.com"}, claims)
}

func TestTokenService_PairExpiries(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := utils.NewTokenService(testConfig()).WithClock(func() time.Time { return now })

	pair, err := svc.IssueTokenPair(alice)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), pair.Access.Exp)
	assert.Equal(t, now.Add(7*24*time.Hour), pair.Refresh.Exp)

	claims, err := svc.VerifyRefreshToken(pair.Refresh.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, claims.ID)
}

func TestTokenService_ExpiredTokenIsInvalid(t *testing.T) {
	now := time.Now()
	svc := utils.NewTokenService(testConfig()).WithClock(func() time.Time { return now })

	tok, err := svc.IssueAccessToken(utils.ClaimsFor(alice))
	require.NoError(t, err)

	later := svc.WithClock(func() time.Time { return now.Add(16 * time.Minute) })
	_, err = later.VerifyAccessToken(tok.Token)
	assert.ErrorIs(t, err, utils.ErrInvalidToken)
}

func TestTokenService_KindsAreNotInterchangeable(t *testing.T) {
	svc := utils.NewTokenService(testConfig())
	pair, err := svc.IssueTokenPair(alice)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(pair.Refresh.Token)
	assert.ErrorIs(t, err, utils.ErrInvalidToken)
	_, err = svc.VerifyRefreshToken(pair.Access.Token)
	assert.ErrorIs(t, err, utils.ErrInvalidToken)
}

func TestTokenService_RejectsForeignOrMalformedTokens(t *testing.T) {
	svc := utils.NewTokenService(testConfig())

	other := testConfig()
	other.JWTSecret = "someone-else"
	foreign, err := utils.NewTokenService(other).IssueAccessToken(utils.ClaimsFor(alice))
	require.NoError(t, err)

	noneTok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":  alice.ID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": alice.ID}).
		SignedString([]byte("access-secret"))
	require.NoError(t, err)

	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"signed with another secret", foreign.Token},
		{"alg none", noneTok},
		{"missing exp", noExp},
		{"missing id", noID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyAccessToken(tt.raw)
			assert.ErrorIs(t, err, utils.ErrInvalidToken)
		})
	}
}

func TestClaimsFor_OmitsPasswordHash(t *testing.T) {
	svc := utils.NewTokenService(testConfig())
	tok, err := svc.IssueAccessToken(utils.ClaimsFor(alice))
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(tok.Token, jwt.MapClaims{})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.NotContains(t, claims, "password_hash")
	assert.NotContains(t, claims, "passwordHash")
	assert.Equal(t, "alice01", claims["username"])
}
