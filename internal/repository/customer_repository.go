package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/iliyamo/customer-directory/internal/model"
)

const customerColumns = "id, username, email, password_hash, first_name, last_name, created_at, updated_at"

// sortClauses whitelists the ORDER BY expressions FindAll accepts.  The id
// tiebreaker keeps pages stable when timestamps collide.
var sortClauses = map[string]string{
	"-created_at": "created_at DESC, id DESC",
	"created_at":  "created_at ASC, id ASC",
	"username":    "username ASC",
	"-username":   "username DESC",
}

// DefaultListLimit applies when ListOptions.Limit is not positive.
const DefaultListLimit = 100

// CustomerRepo encapsulates all database queries related to customers.  It
// depends on a sql.DB connection which should be configured elsewhere.
// Every method is a single statement; uniqueness is enforced by the
// uq_customers_username and uq_customers_email indexes.
type CustomerRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewCustomerRepo constructs a CustomerRepo with the provided DB handle.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{db: db, now: time.Now}
}

// ParseID checks that id is a well-formed customer identifier.
func ParseID(id string) (ulid.ULID, error) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return ulid.ULID{}, ErrInvalidID
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*model.Customer, error) {
	var c model.Customer
	if err := row.Scan(&c.ID, &c.Username, &c.Email, &c.PasswordHash,
		&c.FirstName, &c.LastName, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// findOne runs a single-row lookup and maps sql.ErrNoRows to ErrNotFound.
func (r *CustomerRepo) findOne(ctx context.Context, column, value string) (*model.Customer, error) {
	q := "SELECT " + customerColumns + " FROM customers WHERE " + column + " = ? LIMIT 1"
	c, err := scanCustomer(r.db.QueryRowContext(ctx, q, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("CUSTOMER_QUERY_FAILED").
			With("operation", "find by "+column).
			Wrap(err)
	}
	return c, nil
}

// FindByUsername fetches a customer by exact username.
func (r *CustomerRepo) FindByUsername(ctx context.Context, username string) (*model.Customer, error) {
	return r.findOne(ctx, "username", username)
}

// FindByEmail fetches a customer by exact email.
func (r *CustomerRepo) FindByEmail(ctx context.Context, email string) (*model.Customer, error) {
	return r.findOne(ctx, "email", email)
}

// FindByID fetches a customer by id.  A malformed id yields ErrInvalidID
// without touching the database.
func (r *CustomerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	if _, err := ParseID(id); err != nil {
		return nil, err
	}
	return r.findOne(ctx, "id", id)
}

// Create inserts a new customer.  The id and both timestamps are assigned
// here, overriding whatever the caller put in c.  The returned record is
// the stored row, password hash included; redaction is the caller's job.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	now := r.now().UTC().Truncate(time.Microsecond)
	rec := *c
	rec.ID = ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	const q = "INSERT INTO customers (" + customerColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, q, rec.ID, rec.Username, rec.Email, rec.PasswordHash,
		rec.FirstName, rec.LastName, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if dup := asDuplicate(err); dup != nil {
			return nil, dup
		}
		return nil, oops.Code("CUSTOMER_CREATE_FAILED").
			With("operation", "insert customer").
			With("username", rec.Username).
			Wrap(err)
	}
	return &rec, nil
}

// FindAll returns one page of customers matching filter plus the number of
// matching rows ignoring pagination.
func (r *CustomerRepo) FindAll(ctx context.Context, filter model.CustomerFilter, opts model.ListOptions) ([]*model.Customer, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Username != "" {
		conds = append(conds, "username = ?")
		args = append(args, filter.Username)
	}
	if filter.Email != "" {
		conds = append(conds, "email = ?")
		args = append(args, filter.Email)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers"+where, args...).Scan(&total); err != nil {
		return nil, 0, oops.Code("CUSTOMER_QUERY_FAILED").With("operation", "count customers").Wrap(err)
	}

	order, ok := sortClauses[opts.Sort]
	if !ok {
		order = sortClauses["-created_at"]
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	skip := opts.Skip
	if skip < 0 {
		skip = 0
	}

	q := "SELECT " + customerColumns + " FROM customers" + where + " ORDER BY " + order + " LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, skip)...)
	if err != nil {
		return nil, 0, oops.Code("CUSTOMER_QUERY_FAILED").With("operation", "list customers").Wrap(err)
	}
	defer rows.Close()

	out := make([]*model.Customer, 0, limit)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, oops.Code("CUSTOMER_QUERY_FAILED").With("operation", "scan customer").Wrap(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("CUSTOMER_QUERY_FAILED").With("operation", "iterate customers").Wrap(err)
	}
	return out, total, nil
}

// UpdateByID applies the non-nil fields of patch and re-stamps updated_at.
// The connection must report found rows (clientFoundRows=true, see
// database.Open) so an update that changes nothing still counts as a match.
func (r *CustomerRepo) UpdateByID(ctx context.Context, id string, patch model.CustomerPatch) (*model.Customer, error) {
	if _, err := ParseID(id); err != nil {
		return nil, err
	}

	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	add("username", patch.Username)
	add("email", patch.Email)
	add("first_name", patch.FirstName)
	add("last_name", patch.LastName)
	if patch.PasswordHash != nil && *patch.PasswordHash != "" {
		add("password_hash", patch.PasswordHash)
	}
	sets = append(sets, "updated_at = GREATEST(?, created_at)")
	args = append(args, r.now().UTC().Truncate(time.Microsecond), id)

	q := "UPDATE customers SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if dup := asDuplicate(err); dup != nil {
			return nil, dup
		}
		return nil, oops.Code("CUSTOMER_UPDATE_FAILED").With("operation", "update customer").With("id", id).Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, oops.Code("CUSTOMER_UPDATE_FAILED").With("operation", "rows affected").With("id", id).Wrap(err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, "id", id)
}

// DeleteByID removes a customer.
func (r *CustomerRepo) DeleteByID(ctx context.Context, id string) error {
	if _, err := ParseID(id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		return oops.Code("CUSTOMER_DELETE_FAILED").With("operation", "delete customer").With("id", id).Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code("CUSTOMER_DELETE_FAILED").With("operation", "rows affected").With("id", id).Wrap(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
