package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/customer-directory/internal/metrics"
	"github.com/iliyamo/customer-directory/internal/middleware"
	"github.com/iliyamo/customer-directory/internal/model"
	"github.com/iliyamo/customer-directory/internal/service"
	"github.com/iliyamo/customer-directory/internal/validation"
)

// requestTimeout bounds the store work of a single request.
const requestTimeout = 5 * time.Second

// MsgInvalidBody answers a body that cannot be decoded.
const MsgInvalidBody = "Invalid request body"

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	responder
	auth    *service.AuthService
	cookies *CookieJar
	metrics *metrics.Metrics
}

// NewAuthHandler builds an AuthHandler.  m may be nil.
func NewAuthHandler(auth *service.AuthService, cookies *CookieJar, m *metrics.Metrics, logger *slog.Logger, dev bool) *AuthHandler {
	return &AuthHandler{
		responder: responder{logger: logger, dev: dev},
		auth:      auth,
		cookies:   cookies,
		metrics:   m,
	}
}

// ----- DTOs -----

type registerReq struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
}

// registration trims the identity fields; passwords are taken verbatim.
func (r registerReq) registration() validation.Registration {
	return validation.Registration{
		Username:             strings.TrimSpace(r.Username),
		Email:                strings.TrimSpace(r.Email),
		Password:             r.Password,
		PasswordConfirmation: r.PasswordConfirmation,
		FirstName:            strings.TrimSpace(r.FirstName),
		LastName:             strings.TrimSpace(r.LastName),
	}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken      string `json:"refreshToken"`
	RefreshTokenSnake string `json:"refresh_token"`
}

type sessionResp struct {
	User         *model.Customer `json:"user,omitempty"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

type userResp struct {
	User any `json:"user"`
}

func (h *AuthHandler) outcome(flow string, err error) {
	result := "success"
	if err != nil {
		result = service.KindOf(err).String()
	}
	h.metrics.RecordAuth(flow, result)
}

// Register creates a customer, sets the token cookies and returns the user
// with both tokens.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, MsgInvalidBody)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sess, err := h.auth.Register(ctx, req.registration())
	h.outcome("register", err)
	if err != nil {
		return h.sendError(c, err)
	}
	h.cookies.Set(c, sess.Tokens)
	return ok(c, http.StatusCreated, "User registered successfully", sessionResp{
		User:         sess.Customer,
		AccessToken:  sess.Tokens.Access.Token,
		RefreshToken: sess.Tokens.Refresh.Token,
	})
}

// Login verifies credentials and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, MsgInvalidBody)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sess, err := h.auth.Login(ctx, validation.Login{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	})
	h.outcome("login", err)
	if err != nil {
		return h.sendError(c, err)
	}
	h.cookies.Set(c, sess.Tokens)
	return ok(c, http.StatusOK, "Login successful", sessionResp{
		User:         sess.Customer,
		AccessToken:  sess.Tokens.Access.Token,
		RefreshToken: sess.Tokens.Refresh.Token,
	})
}

// Refresh reads the refresh token from the cookie, else from the body, and
// exchanges it for a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := ""
	if ck, err := c.Cookie(RefreshCookie); err == nil {
		raw = ck.Value
	}
	if raw == "" {
		var req refreshReq
		if err := c.Bind(&req); err == nil {
			raw = strings.TrimSpace(req.RefreshToken)
			if raw == "" {
				raw = strings.TrimSpace(req.RefreshTokenSnake)
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sess, err := h.auth.Refresh(ctx, raw)
	h.outcome("refresh", err)
	if err != nil {
		return h.sendError(c, err)
	}
	h.cookies.Set(c, sess.Tokens)
	return ok(c, http.StatusOK, "Token refreshed successfully", sessionResp{
		AccessToken:  sess.Tokens.Access.Token,
		RefreshToken: sess.Tokens.Refresh.Token,
	})
}

// Logout clears both cookies.  It needs no credential and always succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.cookies.Clear(c)
	h.outcome("logout", nil)
	return ok(c, http.StatusOK, "Logout successful", nil)
}

// Profile returns the stored record of the authenticated customer.
func (h *AuthHandler) Profile(c echo.Context) error {
	claims, found := middleware.ClaimsFrom(c)
	if !found {
		return fail(c, http.StatusUnauthorized, middleware.MsgAccessTokenRequired)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	customer, err := h.auth.Profile(ctx, claims)
	if err != nil {
		return h.sendError(c, err)
	}
	return ok(c, http.StatusOK, "Profile retrieved successfully", userResp{User: customer})
}

// Verify echoes the claims of a valid access token.
func (h *AuthHandler) Verify(c echo.Context) error {
	claims, found := middleware.ClaimsFrom(c)
	if !found {
		return fail(c, http.StatusUnauthorized, middleware.MsgAccessTokenRequired)
	}
	return ok(c, http.StatusOK, "Token is valid", userResp{User: claims})
}
