package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/customer-directory/internal/logging"
	"github.com/iliyamo/customer-directory/internal/service"
)

// MsgInternal is the only message a client sees for an unexpected failure.
const MsgInternal = "Internal server error"

// envelope is the body of every API response.  Error carries the internal
// error text and is only filled in development.
type envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Message: message})
}

// responder maps service outcomes onto HTTP responses.
type responder struct {
	logger *slog.Logger
	dev    bool
}

// statusFor maps a service outcome kind onto an HTTP status.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindValidation, service.KindInvalidID:
		return http.StatusBadRequest
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// sendError writes err.  Expected outcomes get their own status and message;
// anything else is logged and becomes a 500.
func (r responder) sendError(c echo.Context, err error) error {
	var se *service.Error
	if errors.As(err, &se) && se.Kind != service.KindUnexpected {
		return c.JSON(statusFor(se.Kind), envelope{Message: se.Message, Errors: se.Details})
	}
	return r.internal(c, err)
}

func (r responder) internal(c echo.Context, err error) error {
	req := c.Request()
	logging.LogError(r.logger, "request failed", err, "method", req.Method, "path", req.URL.Path)
	body := envelope{Message: MsgInternal}
	if r.dev {
		body.Error = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, body)
}

// ErrorHandler replaces echo's default error handler so router errors
// (unknown routes, bad methods, recovered panics) use the API envelope.
func ErrorHandler(logger *slog.Logger, dev bool) echo.HTTPErrorHandler {
	r := responder{logger: logger, dev: dev}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			_ = r.internal(c, err)
			return
		}
		var werr error
		switch he.Code {
		case http.StatusNotFound:
			werr = fail(c, http.StatusNotFound, fmt.Sprintf("Route not found - %s", c.Request().RequestURI))
		case http.StatusInternalServerError:
			werr = r.internal(c, err)
		default:
			werr = fail(c, he.Code, http.StatusText(he.Code))
		}
		if werr != nil {
			logger.Warn("error response not written", "error", werr)
		}
	}
}
