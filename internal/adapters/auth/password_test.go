package auth

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_GenerateSalt(t *testing.T) {
	h := NewBcryptHasher(4)
	hexRe := regexp.MustCompile(`^[0-9a-f]{64}$`)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		salt, err := h.GenerateSalt()
		require.NoError(t, err)
		assert.Regexp(t, hexRe, salt)
		assert.False(t, seen[salt], "salts must not repeat")
		seen[salt] = true
	}
}

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(4)
	salt, err := h.GenerateSalt()
	require.NoError(t, err)

	// long passwords must survive bcrypt's input limit via the pre-hash
	password := "correct horse battery staple correct horse battery staple correct horse battery staple"
	hash, err := h.Hash(salt, password)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	require.NoError(t, h.Compare(hash, salt, password))

	t.Run("wrong password", func(t *testing.T) {
		assert.Error(t, h.Compare(hash, salt, "wrong password"))
	})
	t.Run("wrong salt", func(t *testing.T) {
		other, err := h.GenerateSalt()
		require.NoError(t, err)
		assert.Error(t, h.Compare(hash, other, password))
	})
}

func TestBcryptHasher_DistinctSaltsDistinctHashes(t *testing.T) {
	h := NewBcryptHasher(4)
	s1, _ := h.GenerateSalt()
	s2, _ := h.GenerateSalt()

	h1, err := h.Hash(s1, "hunter22222")
	require.NoError(t, err)
	h2, err := h.Hash(s2, "hunter22222")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
