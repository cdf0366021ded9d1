package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/iliyamo/customer-directory/internal/model"
	"github.com/iliyamo/customer-directory/internal/queue"
	"github.com/iliyamo/customer-directory/internal/repository"
	"github.com/iliyamo/customer-directory/internal/utils"
	"github.com/iliyamo/customer-directory/internal/validation"
)

// TokenIssuer issues token pairs and verifies refresh tokens.
// *utils.TokenService implements it.
type TokenIssuer interface {
	IssueTokenPair(c *model.Customer) (utils.TokenPair, error)
	VerifyRefreshToken(raw string) (utils.Claims, error)
}

// Session is the result of register, login and refresh.
type Session struct {
	Customer *model.Customer
	Tokens   utils.TokenPair
}

// AuthService implements the customer-facing authentication flows.
type AuthService struct {
	customers *CustomerService
	tokens    TokenIssuer
	logger    *slog.Logger
}

// NewAuthService wires an AuthService on top of the customer service so
// registration and administrative creation share one creation path.
func NewAuthService(customers *CustomerService, tokens TokenIssuer, logger *slog.Logger) (*AuthService, error) {
	switch {
	case customers == nil:
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("customer service is required")
	case tokens == nil:
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("token issuer is required")
	case logger == nil:
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("logger is required")
	}
	return &AuthService{customers: customers, tokens: tokens, logger: logger}, nil
}

// Register creates a customer and signs them in.
func (s *AuthService) Register(ctx context.Context, in validation.Registration) (*Session, error) {
	if res := validation.ValidateRegistration(in); !res.Valid {
		return nil, validationError(res.Errors)
	}
	c, err := s.customers.create(ctx, in, queue.EventCustomerRegistered, "")
	if err != nil {
		return nil, err
	}
	return s.session(c)
}

// Login checks credentials.  An unknown username and a wrong password give
// the same error, and both spend one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, in validation.Login) (*Session, error) {
	if res := validation.ValidateLogin(in); !res.Valid {
		return nil, validationError(res.Errors)
	}

	c, err := s.customers.store.FindByUsername(ctx, in.Username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.customers.hasher.Burn(in.Password)
		return nil, &Error{Kind: KindUnauthenticated, Message: MsgInvalidCredentials}
	case err != nil:
		return nil, err
	}
	if !s.customers.hasher.Verify(in.Password, c.PasswordHash) {
		return nil, &Error{Kind: KindUnauthenticated, Message: MsgInvalidCredentials}
	}

	s.logger.Debug("customer logged in", "customer_id", c.ID)
	return s.session(c)
}

// Refresh exchanges a valid refresh token for a new pair.  The presented
// token is not revoked and stays usable until it expires.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*Session, error) {
	if raw == "" {
		return nil, &Error{Kind: KindUnauthenticated, Message: MsgRefreshTokenRequired}
	}
	claims, err := s.tokens.VerifyRefreshToken(raw)
	if err != nil {
		return nil, &Error{Kind: KindUnauthenticated, Message: MsgInvalidRefreshToken, Err: err}
	}

	c, err := s.customers.store.FindByID(ctx, claims.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrInvalidID):
		return nil, &Error{Kind: KindUnauthenticated, Message: MsgUserNotFound, Err: err}
	case err != nil:
		return nil, err
	}
	return s.session(c)
}

// Profile returns the current record of the authenticated customer.
func (s *AuthService) Profile(ctx context.Context, claims utils.Claims) (*model.Customer, error) {
	c, err := s.customers.store.FindByID(ctx, claims.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrInvalidID):
		return nil, &Error{Kind: KindNotFound, Message: MsgUserNotFound, Err: err}
	case err != nil:
		return nil, err
	}
	return c, nil
}

func (s *AuthService) session(c *model.Customer) (*Session, error) {
	pair, err := s.tokens.IssueTokenPair(c)
	if err != nil {
		return nil, oops.Code("TOKEN_ISSUE_FAILED").With("customer_id", c.ID).Wrap(err)
	}
	return &Session{Customer: c, Tokens: pair}, nil
}
