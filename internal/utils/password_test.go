package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/customer-directory/internal/utils"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := utils.NewPasswordHasher(bcrypt.DefaultCost)

	hash, err := h.Hash("Secret12")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret12", hash)

	assert.True(t, h.Verify("Secret12", hash))
	assert.False(t, h.Verify("Secret13", hash))
	assert.False(t, h.Verify("Secret12", "not-a-bcrypt-hash"))
}

func TestPasswordHasher_SaltsEachHash(t *testing.T) {
	h := utils.NewPasswordHasher(bcrypt.DefaultCost)

	a, err := h.Hash("Secret12")
	require.NoError(t, err)
	b, err := h.Hash("Secret12")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_RejectsEmpty(t *testing.T) {
	_, err := utils.NewPasswordHasher(bcrypt.DefaultCost).Hash("")
	assert.ErrorIs(t, err, utils.ErrEmptyPassword)
}

func TestPasswordHasher_RaisesLowCost(t *testing.T) {
	h := utils.NewPasswordHasher(4)

	hash, err := h.Hash("Secret12")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestPasswordHasher_BurnDoesNotPanic(t *testing.T) {
	h := utils.NewPasswordHasher(bcrypt.DefaultCost)
	assert.NotPanics(t, func() {
		h.Burn("whatever")
		h.Burn("")
	})
}
