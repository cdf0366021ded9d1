package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/customer-directory/internal/validation"
)

func validRegistration() validation.Registration {
	return validation.Registration{
		Username:             "alice01",
		Email:                "a@x.com",
		Password:             "Secret12",
		PasswordConfirmation: "Secret12",
		FirstName:            "A",
		LastName:             "B",
	}
}

func ptr(s string) *string { return &s }

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"alice01", true},
		{"a_b", true},
		{strings.Repeat("x", 20), true},
		{"ab", false},
		{strings.Repeat("x", 21), false},
		{"alice-01", false},
		{"alice 01", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, validation.IsValidUsername(tt.in))
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, validation.IsValidEmail("a@x.com"))
	assert.True(t, validation.IsValidEmail("first.last@sub.example.org"))
	assert.False(t, validation.IsValidEmail("a@x"))
	assert.False(t, validation.IsValidEmail("ax.com"))
	assert.False(t, validation.IsValidEmail("a b@x.com"))
	assert.False(t, validation.IsValidEmail(""))
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, validation.IsValidPassword("Secret12"))
	assert.False(t, validation.IsValidPassword("Secret1"), "too short")
	assert.False(t, validation.IsValidPassword("secret12"), "no upper case")
	assert.False(t, validation.IsValidPassword("SECRET12"), "no lower case")
	assert.False(t, validation.IsValidPassword("Secretxx"), "no digit")
	assert.False(t, validation.IsValidPassword("Äecret12"), "non-ASCII upper case does not count")
	assert.False(t, validation.IsValidPassword("SECRETé12"), "non-ASCII lower case does not count")
	assert.False(t, validation.IsValidPassword("Secretxx٣"), "non-ASCII digit does not count")
	assert.True(t, validation.IsValidPassword("Sécret12"), "other characters are allowed")
}

func TestValidateRegistration_Valid(t *testing.T) {
	res := validation.ValidateRegistration(validRegistration())
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidateRegistration_CollectsEveryError(t *testing.T) {
	res := validation.ValidateRegistration(validation.Registration{})
	assert.False(t, res.Valid)
	assert.Equal(t, []string{
		validation.MsgUsernameRequired,
		validation.MsgEmailRequired,
		validation.MsgPasswordRequired,
		validation.MsgFirstNameRequired,
		validation.MsgLastNameRequired,
		validation.MsgConfirmationRequired,
	}, res.Errors)
}

func TestValidateRegistration_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*validation.Registration)
		want   string
	}{
		{"bad username", func(r *validation.Registration) { r.Username = "a!" }, validation.MsgUsernameFormat},
		{"bad email", func(r *validation.Registration) { r.Email = "nope" }, validation.MsgEmailFormat},
		{"weak password", func(r *validation.Registration) {
			r.Password, r.PasswordConfirmation = "secret12", "secret12"
		}, validation.MsgPasswordStrength},
		{"long password", func(r *validation.Registration) {
			p := "Aa1" + strings.Repeat("x", 70)
			r.Password, r.PasswordConfirmation = p, p
		}, validation.MsgPasswordTooLong},
		{"mismatch", func(r *validation.Registration) { r.PasswordConfirmation = "Secret13" }, validation.MsgConfirmationMismatch},
		{"blank first name", func(r *validation.Registration) { r.FirstName = "   " }, validation.MsgFirstNameRequired},
		{"blank last name", func(r *validation.Registration) { r.LastName = "" }, validation.MsgLastNameRequired},
		{"long email", func(r *validation.Registration) {
			r.Email = strings.Repeat("a", 250) + "@x.com"
		}, validation.MsgEmailTooLong},
		{"long first name", func(r *validation.Registration) { r.FirstName = strings.Repeat("é", 101) }, validation.MsgFirstNameTooLong},
		{"long last name", func(r *validation.Registration) { r.LastName = strings.Repeat("b", 101) }, validation.MsgLastNameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRegistration()
			tt.mutate(&r)
			res := validation.ValidateRegistration(r)
			assert.False(t, res.Valid)
			assert.Equal(t, []string{tt.want}, res.Errors)
		})
	}
}

func TestValidateCustomer_SkipsConfirmation(t *testing.T) {
	r := validRegistration()
	r.PasswordConfirmation = ""
	assert.True(t, validation.ValidateCustomer(r).Valid)
}

func TestValidateLogin_OnlyChecksPresence(t *testing.T) {
	assert.True(t, validation.ValidateLogin(validation.Login{Username: "x", Password: "y"}).Valid)

	res := validation.ValidateLogin(validation.Login{Username: " ", Password: ""})
	assert.Equal(t, []string{validation.MsgUsernameRequired, validation.MsgPasswordRequired}, res.Errors)
}

func TestValidateCustomerUpdate(t *testing.T) {
	t.Run("empty update is valid", func(t *testing.T) {
		assert.True(t, validation.ValidateCustomerUpdate(validation.Update{}).Valid)
	})

	t.Run("present fields are checked", func(t *testing.T) {
		res := validation.ValidateCustomerUpdate(validation.Update{
			Username:  ptr("x"),
			Email:     ptr("bad"),
			Password:  ptr("short"),
			FirstName: ptr(" "),
			LastName:  ptr(""),
		})
		assert.Equal(t, []string{
			validation.MsgUpdateUsernameFormat,
			validation.MsgEmailFormat,
			validation.MsgUpdatePasswordFormat,
			validation.MsgUpdateFirstNameBlank,
			validation.MsgUpdateLastNameBlank,
		}, res.Errors)
	})

	t.Run("lengths are bounded by the column widths", func(t *testing.T) {
		res := validation.ValidateCustomerUpdate(validation.Update{
			Email:     ptr(strings.Repeat("a", 250) + "@x.com"),
			FirstName: ptr(strings.Repeat("a", 101)),
			LastName:  ptr(strings.Repeat("b", 101)),
		})
		assert.Equal(t, []string{
			validation.MsgEmailTooLong,
			validation.MsgFirstNameTooLong,
			validation.MsgLastNameTooLong,
		}, res.Errors)
		assert.Equal(t, "Email must be at most 254 characters", validation.MsgEmailTooLong)

		res = validation.ValidateCustomerUpdate(validation.Update{
			FirstName: ptr(strings.Repeat("é", 100)),
			Email:     ptr(strings.Repeat("a", 248) + "@x.com"),
		})
		assert.True(t, res.Valid, "limits count characters, not bytes")
	})

	t.Run("valid partial update", func(t *testing.T) {
		res := validation.ValidateCustomerUpdate(validation.Update{Email: ptr("new@x.com")})
		assert.True(t, res.Valid)
	})
}
