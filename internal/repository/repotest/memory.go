// Package repotest provides an in-memory customer store with the same
// error contract as repository.CustomerRepo, for tests above the store.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/iliyamo/customer-directory/internal/model"
	"github.com/iliyamo/customer-directory/internal/repository"
)

// MemoryStore keeps customers in a map.  Usernames and emails are unique
// and compared exactly, like the utf8mb4_bin columns.
type MemoryStore struct {
	mu        sync.Mutex
	customers map[string]model.Customer
	now       func() time.Time

	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{customers: map[string]model.Customer{}, now: time.Now}
}

// Len returns the number of stored customers.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.customers)
}

func (s *MemoryStore) findBy(match func(model.Customer) bool) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, c := range s.customers {
		if match(c) {
			cp := c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// FindByUsername implements the store contract.
func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*model.Customer, error) {
	return s.findBy(func(c model.Customer) bool { return c.Username == username })
}

// FindByEmail implements the store contract.
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*model.Customer, error) {
	return s.findBy(func(c model.Customer) bool { return c.Email == email })
}

// FindByID implements the store contract.
func (s *MemoryStore) FindByID(_ context.Context, id string) (*model.Customer, error) {
	if _, err := repository.ParseID(id); err != nil {
		return nil, err
	}
	return s.findBy(func(c model.Customer) bool { return c.ID == id })
}

// conflictLocked reports the field another customer already holds.
func (s *MemoryStore) conflictLocked(selfID, username, email string) error {
	for _, c := range s.customers {
		if c.ID == selfID {
			continue
		}
		if c.Username == username {
			return &repository.DuplicateError{Field: "username"}
		}
		if c.Email == email {
			return &repository.DuplicateError{Field: "email"}
		}
	}
	return nil
}

// Create implements the store contract.
func (s *MemoryStore) Create(_ context.Context, in *model.Customer) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if err := s.conflictLocked("", in.Username, in.Email); err != nil {
		return nil, err
	}
	c := *in
	c.ID = ulid.Make().String()
	c.CreatedAt = s.now().UTC().Truncate(time.Microsecond)
	c.UpdatedAt = c.CreatedAt
	s.customers[c.ID] = c
	return &c, nil
}

// ordering mirrors the repository's sort whitelist; unknown keys fall back
// to newest first.
var ordering = map[string]func(a, b *model.Customer) bool{
	"-created_at": func(a, b *model.Customer) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	},
	"created_at": func(a, b *model.Customer) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	},
	"username":  func(a, b *model.Customer) bool { return a.Username < b.Username },
	"-username": func(a, b *model.Customer) bool { return a.Username > b.Username },
}

// FindAll implements the store contract.
func (s *MemoryStore) FindAll(_ context.Context, filter model.CustomerFilter, opts model.ListOptions) ([]*model.Customer, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	out := make([]*model.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if filter.Username != "" && c.Username != filter.Username {
			continue
		}
		if filter.Email != "" && c.Email != filter.Email {
			continue
		}
		cp := c
		out = append(out, &cp)
	}
	less, ok := ordering[opts.Sort]
	if !ok {
		less = ordering["-created_at"]
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })

	total := len(out)
	limit := opts.Limit
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}
	start := min(max(opts.Skip, 0), total)
	end := min(start+limit, total)
	return out[start:end], total, nil
}

// UpdateByID implements the store contract.
func (s *MemoryStore) UpdateByID(_ context.Context, id string, patch model.CustomerPatch) (*model.Customer, error) {
	if _, err := repository.ParseID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	c, found := s.customers[id]
	if !found {
		return nil, repository.ErrNotFound
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.Username, patch.Username)
	set(&c.Email, patch.Email)
	set(&c.FirstName, patch.FirstName)
	set(&c.LastName, patch.LastName)
	if patch.PasswordHash != nil && *patch.PasswordHash != "" {
		c.PasswordHash = *patch.PasswordHash
	}
	if err := s.conflictLocked(id, c.Username, c.Email); err != nil {
		return nil, err
	}
	if now := s.now().UTC().Truncate(time.Microsecond); now.After(c.CreatedAt) {
		c.UpdatedAt = now
	}
	s.customers[id] = c
	return &c, nil
}

// DeleteByID implements the store contract.
func (s *MemoryStore) DeleteByID(_ context.Context, id string) error {
	if _, err := repository.ParseID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, found := s.customers[id]; !found {
		return repository.ErrNotFound
	}
	delete(s.customers, id)
	return nil
}
