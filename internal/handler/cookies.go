package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/customer-directory/internal/config"
	"github.com/iliyamo/customer-directory/internal/middleware"
	"github.com/iliyamo/customer-directory/internal/utils"
)

// RefreshCookie is the cookie carrying the refresh token.
const RefreshCookie = "refreshToken"

// CookieJar writes and clears the two token cookies.  Both are HttpOnly;
// production adds Secure and SameSite=Strict, other environments use Lax.
type CookieJar struct {
	secure     bool
	sameSite   http.SameSite
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCookieJar derives cookie attributes from cfg.
func NewCookieJar(cfg *config.Config) *CookieJar {
	j := &CookieJar{sameSite: http.SameSiteLaxMode, accessTTL: cfg.AccessTTL, refreshTTL: cfg.RefreshTTL}
	if cfg.IsProduction() {
		j.secure = true
		j.sameSite = http.SameSiteStrictMode
	}
	return j
}

func (j *CookieJar) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: j.sameSite,
	}
}

// Set writes both token cookies.
func (j *CookieJar) Set(c echo.Context, pair utils.TokenPair) {
	c.SetCookie(j.cookie(middleware.AccessCookie, pair.Access.Token, int(j.accessTTL.Seconds())))
	c.SetCookie(j.cookie(RefreshCookie, pair.Refresh.Token, int(j.refreshTTL.Seconds())))
}

// Clear expires both token cookies.
func (j *CookieJar) Clear(c echo.Context) {
	c.SetCookie(j.cookie(middleware.AccessCookie, "", -1))
	c.SetCookie(j.cookie(RefreshCookie, "", -1))
}
