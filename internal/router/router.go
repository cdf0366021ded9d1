// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iliyamo/customer-directory/internal/config"
	"github.com/iliyamo/customer-directory/internal/handler"
	"github.com/iliyamo/customer-directory/internal/metrics"
	"github.com/iliyamo/customer-directory/internal/middleware"
)

// Deps is everything the router needs.  Metrics, Registry and Cache may be
// nil.
type Deps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Tokens    middleware.TokenVerifier
	Auth      *handler.AuthHandler
	Customers *handler.CustomerHandler
	Health    *handler.HealthHandler
	Cache     *middleware.ResponseCache
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
}

// New builds the echo instance with the global middleware and all routes.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(d.Logger, d.Config.IsDevelopment())

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			d.Logger.Error("panic recovered", "error", err, "path", c.Request().URL.Path, "stack", string(stack))
			return err
		},
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			d.Logger.LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{d.Config.CORSOrigin},
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}

	RegisterHealth(e, d.Health, d.Registry)
	RegisterAuth(e, d.Auth, d.Tokens, d.Cache)
	RegisterCustomers(e, d.Customers, d.Tokens, d.Cache)
	return e
}

// RegisterHealth registers the info, health and metrics endpoints.
func RegisterHealth(e *echo.Echo, h *handler.HealthHandler, reg *prometheus.Registry) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.GET("/healthz", h.Healthz)
	if reg != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))
	}
}

// RegisterAuth registers the auth routes under /api/auth.  Register, login,
// refresh and logout are open; profile and verify need an access token.
// Register adds a customer, so it invalidates the customer read cache.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, tokens middleware.TokenVerifier, cache *middleware.ResponseCache) {
	g := e.Group("/api/auth")
	var creates []echo.MiddlewareFunc
	if cache != nil {
		creates = append(creates, cache.Invalidate())
	}
	g.POST("/register", a.Register, creates...)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	authed := g.Group("", middleware.Authenticate(tokens))
	authed.GET("/profile", a.Profile)
	authed.GET("/verify", a.Verify)
}

// RegisterCustomers registers the customer collection under /api/customers.
// Reads are public and cached; writes need an access token and invalidate
// the cache.
func RegisterCustomers(e *echo.Echo, h *handler.CustomerHandler, tokens middleware.TokenVerifier, cache *middleware.ResponseCache) {
	g := e.Group("/api/customers")

	reads := []echo.MiddlewareFunc{middleware.OptionalAuth(tokens)}
	writes := []echo.MiddlewareFunc{middleware.Authenticate(tokens)}
	if cache != nil {
		reads = append(reads, cache.Read())
		writes = append(writes, cache.Invalidate())
	}

	g.GET("", h.List, reads...)
	g.GET("/:id", h.Get, reads...)
	g.POST("", h.Create, writes...)
	g.PUT("/:id", h.Update, writes...)
	g.DELETE("/:id", h.Delete, writes...)
}
