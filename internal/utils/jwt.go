// Package utils provides the credential primitives: password hashing and
// token signing.
package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/customer-directory/internal/config"
	"github.com/iliyamo/customer-directory/internal/model"
)

// ErrInvalidToken is the single failure kind of token verification.  A bad
// signature, a malformed token, an unexpected algorithm and an expired token
// all wrap it; callers switch on this value only.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the identity embedded in both token kinds.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ClaimsFor derives the claim set from a customer record.  Only identity
// fields are copied; the password hash never reaches a token.
func ClaimsFor(c *model.Customer) Claims {
	return Claims{ID: c.ID, Username: c.Username, Email: c.Email}
}

// tokenClaims is the JWT payload: the identity plus exp/iat.
type tokenClaims struct {
	Claims
	jwt.RegisteredClaims
}

// SignedToken represents a signed JWT along with its expiry.  Token holds
// the serialized JWT string and Exp the UTC expiration time.
type SignedToken struct {
	Token string
	Exp   time.Time
}

// TokenPair is what register, login and refresh hand back to the client.
type TokenPair struct {
	Access  SignedToken
	Refresh SignedToken
}

// keyedSigner signs and verifies one token kind with its own secret and
// lifetime.
type keyedSigner struct {
	kind   string
	secret []byte
	ttl    time.Duration
}

// TokenService issues and verifies access and refresh tokens.  The two
// kinds use independent HS256 secrets so a leaked access secret cannot mint
// refresh tokens and vice versa.
type TokenService struct {
	access  keyedSigner
	refresh keyedSigner
	now     func() time.Time
}

// NewTokenService builds a TokenService from the immutable configuration.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		access:  keyedSigner{kind: "access", secret: []byte(cfg.JWTSecret), ttl: cfg.AccessTTL},
		refresh: keyedSigner{kind: "refresh", secret: []byte(cfg.JWTRefreshSecret), ttl: cfg.RefreshTTL},
		now:     time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.  Tests
// use it to move past token expiry without sleeping.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// IssueAccessToken signs claims as a short-lived access token.
func (s *TokenService) IssueAccessToken(c Claims) (SignedToken, error) {
	return s.sign(s.access, c)
}

// IssueRefreshToken signs claims as a long-lived refresh token.
func (s *TokenService) IssueRefreshToken(c Claims) (SignedToken, error) {
	return s.sign(s.refresh, c)
}

// IssueTokenPair issues a fresh access and refresh token for a customer.
func (s *TokenService) IssueTokenPair(c *model.Customer) (TokenPair, error) {
	claims := ClaimsFor(c)
	access, err := s.IssueAccessToken(claims)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(claims)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// VerifyAccessToken checks signature and expiry of an access token.
func (s *TokenService) VerifyAccessToken(raw string) (Claims, error) {
	return s.verify(s.access, raw)
}

// VerifyRefreshToken checks signature and expiry of a refresh token.
func (s *TokenService) VerifyRefreshToken(raw string) (Claims, error) {
	return s.verify(s.refresh, raw)
}

func (s *TokenService) sign(k keyedSigner, c Claims) (SignedToken, error) {
	now := s.now().UTC()
	exp := now.Add(k.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Claims: c,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := t.SignedString(k.secret)
	if err != nil {
		return SignedToken{}, fmt.Errorf("sign %s token: %w", k.kind, err)
	}
	// NumericDate has second precision; report the value actually embedded.
	return SignedToken{Token: signed, Exp: exp.Truncate(time.Second)}, nil
}

func (s *TokenService) verify(k keyedSigner, raw string) (Claims, error) {
	var tc tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &tc,
		func(*jwt.Token) (interface{}, error) { return k.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %s token: %w", ErrInvalidToken, k.kind, err)
	}
	if !tok.Valid || tc.Claims.ID == "" {
		return Claims{}, fmt.Errorf("%w: %s token: missing identity", ErrInvalidToken, k.kind)
	}
	return tc.Claims, nil
}
