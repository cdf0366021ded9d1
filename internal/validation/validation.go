// Package validation holds the field rules for customer payloads.  Every
// function is pure: rules report, aggregators collect, nothing touches the
// store.
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

// Column widths of the customers table, in characters.
const (
	MaxEmailLength = 254
	MaxNameLength  = 100
)

// Messages returned by the aggregators.
const (
	MsgUsernameRequired     = "Username is required"
	MsgUsernameFormat       = "Username must be 3-20 characters and contain only letters, numbers, and underscores"
	MsgEmailRequired        = "Email is required"
	MsgEmailFormat          = "Invalid email format"
	MsgPasswordRequired     = "Password is required"
	MsgPasswordStrength     = "Password must be at least 8 characters with 1 uppercase, 1 lowercase, and 1 number"
	MsgPasswordTooLong      = "Password must be at most 72 bytes"
	MsgConfirmationRequired = "Password confirmation is required"
	MsgConfirmationMismatch = "Passwords do not match"
	MsgFirstNameRequired    = "First name is required"
	MsgLastNameRequired     = "Last name is required"
	MsgUpdateUsernameFormat = "Invalid username format"
	MsgUpdatePasswordFormat = "Invalid password format"
	MsgUpdateFirstNameBlank = "First name cannot be empty"
	MsgUpdateLastNameBlank  = "Last name cannot be empty"
)

// Length messages, derived from the column widths.
var (
	MsgEmailTooLong     = tooLong("Email", MaxEmailLength)
	MsgFirstNameTooLong = tooLong("First name", MaxNameLength)
	MsgLastNameTooLong  = tooLong("Last name", MaxNameLength)
)

func tooLong(field string, n int) string {
	return field + " must be at most " + strconv.Itoa(n) + " characters"
}

// Result is the outcome of an aggregator.  Errors keeps rule order.
type Result struct {
	Valid  bool
	Errors []string
}

type collector []string

func (c *collector) add(msg string) { *c = append(*c, msg) }

func (c collector) result() Result {
	return Result{Valid: len(c) == 0, Errors: c}
}

// IsValidUsername reports whether s is 3-20 letters, digits or underscores.
func IsValidUsername(s string) bool { return usernameRe.MatchString(s) }

// IsValidEmail performs a syntactic local@domain.tld check only.
func IsValidEmail(s string) bool { return emailRe.MatchString(s) }

// IsValidPassword requires MinPasswordLength characters including an ASCII
// upper case letter, an ASCII lower case letter and an ASCII digit.
func IsValidPassword(s string) bool {
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return false
	}
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case 'A' <= r && r <= 'Z':
			upper = true
		case 'a' <= r && r <= 'z':
			lower = true
		case '0' <= r && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

// exceeds reports whether s is longer than n characters.
func exceeds(s string, n int) bool { return utf8.RuneCountInString(s) > n }

// IsBlank reports whether s is empty after trimming.
func IsBlank(s string) bool { return strings.TrimSpace(s) == "" }

// Registration is the register payload.
type Registration struct {
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
	FirstName            string
	LastName             string
}

// Login is the login payload.
type Login struct {
	Username string
	Password string
}

// Update is a partial customer payload; nil means absent.
type Update struct {
	Username  *string
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
}

// ValidateRegistration runs every rule including the confirmation check.
func ValidateRegistration(d Registration) Result {
	var c collector
	checkIdentity(&c, d.Username, d.Email, d.Password, d.FirstName, d.LastName)
	switch {
	case d.PasswordConfirmation == "":
		c.add(MsgConfirmationRequired)
	case d.PasswordConfirmation != d.Password:
		c.add(MsgConfirmationMismatch)
	}
	return c.result()
}

// ValidateCustomer runs the creation rules without the confirmation check.
// Administrative creation uses it.
func ValidateCustomer(d Registration) Result {
	var c collector
	checkIdentity(&c, d.Username, d.Email, d.Password, d.FirstName, d.LastName)
	return c.result()
}

// ValidateLogin only checks presence; format rules would leak which
// usernames can exist.
func ValidateLogin(d Login) Result {
	var c collector
	if IsBlank(d.Username) {
		c.add(MsgUsernameRequired)
	}
	if IsBlank(d.Password) {
		c.add(MsgPasswordRequired)
	}
	return c.result()
}

// ValidateCustomerUpdate checks only the fields present in d.
func ValidateCustomerUpdate(d Update) Result {
	var c collector
	if d.Username != nil && !IsValidUsername(*d.Username) {
		c.add(MsgUpdateUsernameFormat)
	}
	if d.Email != nil {
		switch {
		case !IsValidEmail(*d.Email):
			c.add(MsgEmailFormat)
		case exceeds(*d.Email, MaxEmailLength):
			c.add(MsgEmailTooLong)
		}
	}
	if d.Password != nil {
		switch {
		case !IsValidPassword(*d.Password):
			c.add(MsgUpdatePasswordFormat)
		case len(*d.Password) > MaxPasswordBytes:
			c.add(MsgPasswordTooLong)
		}
	}
	if d.FirstName != nil {
		switch {
		case IsBlank(*d.FirstName):
			c.add(MsgUpdateFirstNameBlank)
		case exceeds(*d.FirstName, MaxNameLength):
			c.add(MsgFirstNameTooLong)
		}
	}
	if d.LastName != nil {
		switch {
		case IsBlank(*d.LastName):
			c.add(MsgUpdateLastNameBlank)
		case exceeds(*d.LastName, MaxNameLength):
			c.add(MsgLastNameTooLong)
		}
	}
	return c.result()
}

func checkIdentity(c *collector, username, email, password, first, last string) {
	switch {
	case username == "":
		c.add(MsgUsernameRequired)
	case !IsValidUsername(username):
		c.add(MsgUsernameFormat)
	}
	switch {
	case email == "":
		c.add(MsgEmailRequired)
	case !IsValidEmail(email):
		c.add(MsgEmailFormat)
	case exceeds(email, MaxEmailLength):
		c.add(MsgEmailTooLong)
	}
	switch {
	case password == "":
		c.add(MsgPasswordRequired)
	case !IsValidPassword(password):
		c.add(MsgPasswordStrength)
	case len(password) > MaxPasswordBytes:
		c.add(MsgPasswordTooLong)
	}
	switch {
	case IsBlank(first):
		c.add(MsgFirstNameRequired)
	case exceeds(first, MaxNameLength):
		c.add(MsgFirstNameTooLong)
	}
	switch {
	case IsBlank(last):
		c.add(MsgLastNameRequired)
	case exceeds(last, MaxNameLength):
		c.add(MsgLastNameTooLong)
	}
}
