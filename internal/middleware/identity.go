package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/customer-directory/internal/utils"
)

const claimsKey = "customer_claims"

func setClaims(c echo.Context, claims utils.Claims) { c.Set(claimsKey, claims) }

// ClaimsFrom returns the identity attached by Authenticate or OptionalAuth.
func ClaimsFrom(c echo.Context) (utils.Claims, bool) {
	claims, ok := c.Get(claimsKey).(utils.Claims)
	return claims, ok
}

// ActorID is the id of the authenticated customer, or "" for anonymous
// requests.
func ActorID(c echo.Context) string {
	claims, _ := ClaimsFrom(c)
	return claims.ID
}
