package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsDuplicate(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantField string
		wantNil   bool
	}{
		{
			name:      "username index",
			err:       &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice01' for key 'customers.uq_customers_username'"},
			wantField: "username",
		},
		{
			name:      "email index, wrapped",
			err:       fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@x.com' for key 'uq_customers_email'"}),
			wantField: "email",
		},
		{
			name:      "unknown index",
			err:       &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'PRIMARY'"},
			wantField: "",
		},
		{
			name:    "other mysql error",
			err:     &mysql.MySQLError{Number: 1146, Message: "Table 'customers' doesn't exist"},
			wantNil: true,
		},
		{
			name:    "not a mysql error",
			err:     errors.New("boom"),
			wantNil: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dup := asDuplicate(tt.err)
			if tt.wantNil {
				assert.Nil(t, dup)
				return
			}
			require.NotNil(t, dup)
			assert.Equal(t, tt.wantField, dup.Field)
		})
	}
}

func TestDuplicateError_MatchesConflict(t *testing.T) {
	err := fmt.Errorf("create: %w", &DuplicateError{Field: "email"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "create: email already exists", err.Error())
}

func TestParseID(t *testing.T) {
	_, err := ParseID("01J8ZK5Q6M3C2B1A0Z9Y8X7W6V")
	assert.NoError(t, err)

	for _, bad := range []string{"", "not-an-id", "01J8ZK5Q6M3C2B1A0Z9Y8X7W6", "81J8ZK5Q6M3C2B1A0Z9Y8X7W6V"} {
		_, err := ParseID(bad)
		assert.ErrorIs(t, err, ErrInvalidID, bad)
	}
}
