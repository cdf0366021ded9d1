package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/customer-directory/internal/config"
	"github.com/iliyamo/customer-directory/internal/middleware"
	"github.com/iliyamo/customer-directory/internal/utils"
)

func setCookies(t *testing.T, env string, clear bool) map[string]*http.Cookie {
	t.Helper()
	jar := NewCookieJar(&config.Config{Env: env, AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour})
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	if clear {
		jar.Clear(c)
	} else {
		jar.Set(c, utils.TokenPair{
			Access:  utils.SignedToken{Token: "acc"},
			Refresh: utils.SignedToken{Token: "ref"},
		})
	}
	out := map[string]*http.Cookie{}
	for _, ck := range rec.Result().Cookies() {
		out[ck.Name] = ck
	}
	require.Len(t, out, 2)
	return out
}

func TestCookieJar_Set(t *testing.T) {
	cookies := setCookies(t, "development", false)

	access := cookies[middleware.AccessCookie]
	require.NotNil(t, access)
	assert.Equal(t, "acc", access.Value)
	assert.Equal(t, 900, access.MaxAge)
	assert.True(t, access.HttpOnly)
	assert.False(t, access.Secure)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, "/", access.Path)

	refresh := cookies[RefreshCookie]
	require.NotNil(t, refresh)
	assert.Equal(t, "ref", refresh.Value)
	assert.Equal(t, 7*24*3600, refresh.MaxAge)
}

func TestCookieJar_ProductionIsStrict(t *testing.T) {
	for _, ck := range setCookies(t, "production", false) {
		assert.True(t, ck.Secure, ck.Name)
		assert.Equal(t, http.SameSiteStrictMode, ck.SameSite, ck.Name)
	}
}

func TestCookieJar_Clear(t *testing.T) {
	for _, ck := range setCookies(t, "development", true) {
		assert.Empty(t, ck.Value, ck.Name)
		assert.Equal(t, -1, ck.MaxAge, ck.Name)
	}
}
