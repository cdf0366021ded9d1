package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/customer-directory/internal/middleware"
	"github.com/iliyamo/customer-directory/internal/model"
	"github.com/iliyamo/customer-directory/internal/service"
	"github.com/iliyamo/customer-directory/internal/validation"
)

// MaxPageLimit caps the limit query parameter of the customer list.
const MaxPageLimit = 1000

// CustomerHandler serves the customer collection.
type CustomerHandler struct {
	responder
	customers *service.CustomerService
}

// NewCustomerHandler builds a CustomerHandler.
func NewCustomerHandler(customers *service.CustomerService, logger *slog.Logger, dev bool) *CustomerHandler {
	return &CustomerHandler{responder: responder{logger: logger, dev: dev}, customers: customers}
}

type customerCreateReq struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type customerUpdateReq struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}

type customerResp struct {
	Customer *model.Customer `json:"customer"`
}

type pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type customerListResp struct {
	Customers  []*model.Customer `json:"customers"`
	Pagination pagination        `json:"pagination"`
}

// queryInt parses a positive integer query parameter, falling back to def.
func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// List returns a page of customers, optionally filtered by exact username
// or email.
func (h *CustomerHandler) List(c echo.Context) error {
	page := queryInt(c, "page", 1)
	limit := min(queryInt(c, "limit", 100), MaxPageLimit)
	filter := model.CustomerFilter{
		Username: strings.TrimSpace(c.QueryParam("username")),
		Email:    strings.TrimSpace(c.QueryParam("email")),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.customers.List(ctx, filter, page, limit, c.QueryParam("sort"))
	if err != nil {
		return h.sendError(c, err)
	}
	return ok(c, http.StatusOK, "Customers retrieved successfully", customerListResp{
		Customers: res.Items,
		Pagination: pagination{
			Total:      res.Total,
			Page:       res.Page,
			Limit:      res.Limit,
			TotalPages: res.TotalPages(),
		},
	})
}

// Get returns one customer.
func (h *CustomerHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	customer, err := h.customers.Get(ctx, c.Param("id"))
	if err != nil {
		return h.sendError(c, err)
	}
	return ok(c, http.StatusOK, "Customer retrieved successfully", customerResp{Customer: customer})
}

// Create adds a customer on behalf of the authenticated caller.
func (h *CustomerHandler) Create(c echo.Context) error {
	var req customerCreateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, MsgInvalidBody)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	customer, err := h.customers.Create(ctx, validation.Registration{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}, middleware.ActorID(c))
	if err != nil {
		return h.sendError(c, err)
	}
	return ok(c, http.StatusCreated, "Customer created successfully", customerResp{Customer: customer})
}

// Update applies a partial update; absent fields are left unchanged.
func (h *CustomerHandler) Update(c echo.Context) error {
	var req customerUpdateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, MsgInvalidBody)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	customer, err := h.customers.Update(ctx, c.Param("id"), validation.Update{
		Username:  trimmed(req.Username),
		Email:     trimmed(req.Email),
		Password:  req.Password,
		FirstName: trimmed(req.FirstName),
		LastName:  trimmed(req.LastName),
	}, middleware.ActorID(c))
	if err != nil {
		return h.sendError(c, err)
	}
	return ok(c, http.StatusOK, "Customer updated successfully", customerResp{Customer: customer})
}

// Delete removes a customer.
func (h *CustomerHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.customers.Delete(ctx, c.Param("id"), middleware.ActorID(c)); err != nil {
		return h.sendError(c, err)
	}
	return ok(c, http.StatusOK, "Customer deleted successfully", nil)
}
