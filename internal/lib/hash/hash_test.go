package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword_TwoHashesDiffer(t *testing.T) {
	t.Parallel()

	first, err := Password("pw123")
	require.NoError(t, err)

	second, err := Password("pw123")
	require.NoError(t, err)

	// salted: same plaintext never hashes to the same digest
	assert.NotEqual(t, first, second)
	assert.True(t, Verify("pw123", first))
	assert.True(t, Verify("pw123", second))
}

func TestVerify_WrongPassword(t *testing.T) {
	t.Parallel()

	digest, err := Password("correct-horse")
	require.NoError(t, err)

	assert.True(t, Verify("correct-horse", digest))
	assert.False(t, Verify("battery-staple", digest))
}

func TestVerify_MalformedDigest(t *testing.T) {
	t.Parallel()

	assert.False(t, Verify("anything", []byte("not-a-bcrypt-digest")))
}
