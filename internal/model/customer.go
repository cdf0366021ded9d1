package model

import "time"

// Customer represents a customer record as stored in the `customers`
// table.  Each field corresponds to a column in the database.  The json
// tags describe the outward shape; PasswordHash is excluded so a record
// can never leak its hash through an encoder.
//
// Fields:
//
//	ID           – ULID assigned by the repository at creation.
//	Username     – unique login name.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	FirstName    – given name.
//	LastName     – family name.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type Customer struct {
	ID           string    `json:"id"`         // customers.id
	Username     string    `json:"username"`   // customers.username
	Email        string    `json:"email"`      // customers.email
	PasswordHash string    `json:"-"`          // customers.password_hash
	FirstName    string    `json:"first_name"` // customers.first_name
	LastName     string    `json:"last_name"`  // customers.last_name
	CreatedAt    time.Time `json:"created_at"` // customers.created_at
	UpdatedAt    time.Time `json:"updated_at"` // customers.updated_at
}

// CustomerPatch carries a partial update.  A nil field is left untouched.
// PasswordHash must already be hashed by the caller; the repository never
// hashes and never clears the column.
type CustomerPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
}

// CustomerFilter is an exact-match conjunction over identity fields.  Empty
// strings are ignored.
type CustomerFilter struct {
	Username string
	Email    string
}

// ListOptions controls pagination and ordering of FindAll.  Sort accepts
// "-created_at" (default), "created_at", "username" and "-username".
type ListOptions struct {
	Skip  int
	Limit int
	Sort  string
}
