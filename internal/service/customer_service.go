package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/samber/oops"

	"github.com/iliyamo/customer-directory/internal/logging"
	"github.com/iliyamo/customer-directory/internal/model"
	"github.com/iliyamo/customer-directory/internal/queue"
	"github.com/iliyamo/customer-directory/internal/repository"
	"github.com/iliyamo/customer-directory/internal/validation"
)

// CustomerStore is the persistence contract the services need.
// *repository.CustomerRepo implements it.
type CustomerStore interface {
	FindByUsername(ctx context.Context, username string) (*model.Customer, error)
	FindByEmail(ctx context.Context, email string) (*model.Customer, error)
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	Create(ctx context.Context, c *model.Customer) (*model.Customer, error)
	FindAll(ctx context.Context, filter model.CustomerFilter, opts model.ListOptions) ([]*model.Customer, int, error)
	UpdateByID(ctx context.Context, id string, patch model.CustomerPatch) (*model.Customer, error)
	DeleteByID(ctx context.Context, id string) error
}

// PasswordHasher hashes and verifies passwords.  *utils.PasswordHasher
// implements it.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
	Burn(plain string)
}

// EventPublisher receives customer events after successful writes.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.CustomerEvent) error
}

// CustomerService implements listing and administrative CRUD on customers.
// Registration shares its creation path.
type CustomerService struct {
	store  CustomerStore
	hasher PasswordHasher
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewCustomerService wires a CustomerService.  A nil publisher disables
// events.
func NewCustomerService(store CustomerStore, hasher PasswordHasher, events EventPublisher, logger *slog.Logger) (*CustomerService, error) {
	switch {
	case store == nil:
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("customer store is required")
	case hasher == nil:
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("password hasher is required")
	case logger == nil:
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("logger is required")
	}
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &CustomerService{store: store, hasher: hasher, events: events, logger: logger, now: time.Now}, nil
}

// ListResult is one page of customers.
type ListResult struct {
	Items []*model.Customer
	Total int
	Page  int
	Limit int
}

// TotalPages is ceil(Total/Limit).
func (r ListResult) TotalPages() int {
	if r.Limit <= 0 {
		return 0
	}
	return (r.Total + r.Limit - 1) / r.Limit
}

// List returns page (1-based) of customers matching filter.  A page whose
// offset does not fit in an int lies past every row and comes back empty.
func (s *CustomerService) List(ctx context.Context, filter model.CustomerFilter, page, limit int, sort string) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = repository.DefaultListLimit
	}
	skip := math.MaxInt
	if page-1 <= math.MaxInt/limit {
		skip = (page - 1) * limit
	}
	items, total, err := s.store.FindAll(ctx, filter, model.ListOptions{
		Skip:  skip,
		Limit: limit,
		Sort:  sort,
	})
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Get returns one customer.
func (s *CustomerService) Get(ctx context.Context, id string) (*model.Customer, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return c, nil
}

// Create validates and stores a customer on behalf of an authenticated
// actor.
func (s *CustomerService) Create(ctx context.Context, in validation.Registration, actorID string) (*model.Customer, error) {
	if res := validation.ValidateCustomer(in); !res.Valid {
		return nil, validationError(res.Errors)
	}
	return s.create(ctx, in, queue.EventCustomerCreated, actorID)
}

// create is the single uniqueness-checked creation path.  The probes are a
// fast path for a precise message; the unique indexes decide races and
// their violation maps to the same Conflict.
func (s *CustomerService) create(ctx context.Context, in validation.Registration, eventType, actorID string) (*model.Customer, error) {
	if err := s.probeUnique(ctx, "username", in.Username, ""); err != nil {
		return nil, err
	}
	if err := s.probeUnique(ctx, "email", in.Email, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}

	c, err := s.store.Create(ctx, &model.Customer{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	s.publish(ctx, queue.CustomerEvent{
		Type:       eventType,
		CustomerID: c.ID,
		Username:   c.Username,
		Email:      c.Email,
		ActorID:    actorID,
	})
	return c, nil
}

// Update applies a partial update.  Changed identity fields are probed
// against other customers; a supplied password is hashed before it reaches
// the store.
func (s *CustomerService) Update(ctx context.Context, id string, in validation.Update, actorID string) (*model.Customer, error) {
	if _, err := repository.ParseID(id); err != nil {
		return nil, mapStoreError(err)
	}
	if res := validation.ValidateCustomerUpdate(in); !res.Valid {
		return nil, validationError(res.Errors)
	}
	if in.Username != nil {
		if err := s.probeUnique(ctx, "username", *in.Username, id); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if err := s.probeUnique(ctx, "email", *in.Email, id); err != nil {
			return nil, err
		}
	}

	patch := model.CustomerPatch{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, oops.Code("PASSWORD_HASH_FAILED").With("id", id).Wrap(err)
		}
		patch.PasswordHash = &hash
	}

	c, err := s.store.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, mapStoreError(err)
	}

	s.publish(ctx, queue.CustomerEvent{
		Type:       queue.EventCustomerUpdated,
		CustomerID: c.ID,
		Username:   c.Username,
		Email:      c.Email,
		ActorID:    actorID,
		Fields:     changedFields(in),
	})
	return c, nil
}

// Delete removes a customer.
func (s *CustomerService) Delete(ctx context.Context, id, actorID string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return mapStoreError(err)
	}
	s.publish(ctx, queue.CustomerEvent{
		Type:       queue.EventCustomerDeleted,
		CustomerID: id,
		ActorID:    actorID,
	})
	return nil
}

// probeUnique fails with Conflict when another customer (id != selfID)
// already holds value in field.
func (s *CustomerService) probeUnique(ctx context.Context, field, value, selfID string) error {
	var (
		existing *model.Customer
		err      error
	)
	if field == "email" {
		existing, err = s.store.FindByEmail(ctx, value)
	} else {
		existing, err = s.store.FindByUsername(ctx, value)
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return oops.Code("UNIQUENESS_PROBE_FAILED").With("field", field).Wrap(err)
	case existing.ID == selfID:
		return nil
	}
	return conflictError(field, nil)
}

func (s *CustomerService) publish(ctx context.Context, ev queue.CustomerEvent) {
	ev.OccurredAt = s.now().UTC().Format(time.RFC3339Nano)
	if err := s.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		logging.LogError(s.logger, "customer event not published", err, "type", ev.Type, "customer_id", ev.CustomerID)
	}
}

// mapStoreError turns repository sentinels into service errors and leaves
// anything else for the Unexpected path.
func mapStoreError(err error) error {
	var dup *repository.DuplicateError
	switch {
	case errors.As(err, &dup):
		return conflictError(dup.Field, err)
	case errors.Is(err, repository.ErrConflict):
		return conflictError("", err)
	case errors.Is(err, repository.ErrInvalidID):
		return &Error{Kind: KindInvalidID, Message: MsgInvalidCustomerID, Err: err}
	case errors.Is(err, repository.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: MsgCustomerNotFound, Err: err}
	}
	return err
}

func changedFields(in validation.Update) []string {
	var out []string
	if in.Username != nil {
		out = append(out, "username")
	}
	if in.Email != nil {
		out = append(out, "email")
	}
	if in.Password != nil {
		out = append(out, "password")
	}
	if in.FirstName != nil {
		out = append(out, "first_name")
	}
	if in.LastName != nil {
		out = append(out, "last_name")
	}
	return out
}
