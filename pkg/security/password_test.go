package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("newpass")
	require.NoError(t, err)
	assert.NotEqual(t, "newpass", hash)

	assert.NoError(t, h.Compare(hash, "newpass"))
	assert.Error(t, h.Compare(hash, "oldpass"))
}

func TestBcryptHasherRejectsShortPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash("abc")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestBcryptHasherClampsCost(t *testing.T) {
	h := NewBcryptHasher(99).(*bcryptHasher)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}
