package auth_test

import (
	"testing"

	auth "github.com/goliatone/go-login"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherHash(t *testing.T) {
	tests := []struct {
		name   string
		method string
		size   int
	}{
		{name: "default method", method: "", size: 64},
		{name: "sha256", method: "sha256", size: 64},
		{name: "sha512", method: "SHA512", size: 128},
		{name: "sha3-256", method: "sha3-256", size: 64},
		{name: "blake2b-512", method: "blake2b-512", size: 128},
		{name: "blake2s-256", method: "blake2s-256", size: 64},
		{name: "blake3", method: "blake3", size: 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hasher, err := auth.NewHasher(tt.method, "app-secret")
			require.NoError(t, err)

			first, err := hasher.Hash("password123")
			require.NoError(t, err)
			second, err := hasher.Hash("password123")
			require.NoError(t, err)

			assert.Equal(t, first, second)
			assert.Len(t, first, tt.size)
			assert.Equal(t, tt.size, hasher.Size())
		})
	}
}

func TestHasherKnownDigest(t *testing.T) {
	// RFC 4231 test case 2
	hasher, err := auth.NewHasher("sha256", "Jefe")
	require.NoError(t, err)

	digest, err := hasher.Hash("what do ya want for nothing?")
	require.NoError(t, err)
	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", digest)
}

func TestHasherKeyChangesDigest(t *testing.T) {
	a, err := auth.NewHasher("sha256", "key-one")
	require.NoError(t, err)
	b, err := auth.NewHasher("sha256", "key-two")
	require.NoError(t, err)

	da, err := a.Hash("secret")
	require.NoError(t, err)
	db, err := b.Hash("secret")
	require.NoError(t, err)

	assert.NotEqual(t, da, db)
}

func TestHasherMissingKey(t *testing.T) {
	hasher, err := auth.NewHasher("sha256", "")
	require.NoError(t, err)

	digest, err := hasher.Hash("secret")
	assert.Empty(t, digest)
	assert.ErrorIs(t, err, auth.ErrHashKeyMissing)
	assert.True(t, auth.IsConfigurationError(err))

	ok, err := hasher.Compare("secret", "whatever")
	assert.False(t, ok)
	assert.True(t, auth.IsConfigurationError(err))
}

func TestHasherUnknownMethod(t *testing.T) {
	hasher, err := auth.NewHasher("rot13", "key")
	assert.Nil(t, hasher)
	assert.True(t, auth.IsConfigurationError(err))
}

func TestHasherCompare(t *testing.T) {
	hasher, err := auth.NewHasher("sha256", "key")
	require.NoError(t, err)

	digest, err := hasher.Hash("correct horse")
	require.NoError(t, err)

	ok, err := hasher.Compare("correct horse", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Compare("battery staple", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashMethodsSorted(t *testing.T) {
	methods := auth.HashMethods()
	assert.Contains(t, methods, "sha256")
	assert.Contains(t, methods, "blake3")
	assert.IsNonDecreasing(t, methods)
}
