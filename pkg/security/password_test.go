package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenadecraft/serenade-backend/pkg/config"
	"github.com/serenadecraft/serenade-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := security.HashPassword("hunter2", testPasswordConfig())
	require.NoError(t, err)
	require.Contains(t, hash, "$argon2id$")

	ok, err := security.VerifyPassword("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = security.VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordEmpty(t *testing.T) {
	t.Parallel()

	_, err := security.HashPassword("", testPasswordConfig())
	assert.Error(t, err)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	t.Parallel()

	_, err := security.VerifyPassword("hunter2", "not-a-hash")
	assert.ErrorIs(t, err, security.ErrInvalidHash)
}
