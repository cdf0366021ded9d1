package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/customer-directory/internal/utils"
)

// AccessCookie is the cookie carrying the access token.
const AccessCookie = "accessToken"

// Messages written by the authentication middleware.
const (
	MsgAccessTokenRequired = "Access token required"
	MsgInvalidAccessToken  = "Invalid or expired token"
)

// TokenVerifier verifies access tokens.  *utils.TokenService implements it.
type TokenVerifier interface {
	VerifyAccessToken(raw string) (utils.Claims, error)
}

// bearerToken reads the access token from the accessToken cookie first and
// falls back to "Authorization: Bearer <token>".
func bearerToken(c echo.Context) string {
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if scheme, token, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// Authenticate rejects requests without a valid access token.  A missing
// token answers 401 and an invalid or expired one 403; on success the claims
// are stored on the context for ClaimsFrom.
func Authenticate(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": MsgAccessTokenRequired})
			}
			claims, err := tokens.VerifyAccessToken(raw)
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": MsgInvalidAccessToken})
			}
			setClaims(c, claims)
			return next(c)
		}
	}
}

// OptionalAuth attaches the claims of a valid access token when one is
// present.  Missing or invalid tokens leave the request anonymous.
func OptionalAuth(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := bearerToken(c); raw != "" {
				if claims, err := tokens.VerifyAccessToken(raw); err == nil {
					setClaims(c, claims)
				}
			}
			return next(c)
		}
	}
}
