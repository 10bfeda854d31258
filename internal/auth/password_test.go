package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(4)

	digest, err := h.Hash("Secret123!")
	assert.NoError(t, err)
	assert.NotEmpty(t, digest)
	assert.NotEqual(t, "Secret123!", digest)

	assert.True(t, h.Verify("Secret123!", digest))
	assert.False(t, h.Verify("Secret123?", digest))
}

func TestHasherLongPassword(t *testing.T) {
	h := NewHasher(4)

	// bcrypt truncates at 72 bytes; inputs beyond that go through the
	// sha256 reduction and must still round-trip.
	long := strings.Repeat("p4ssword-", 20)
	assert.Greater(t, len(long), 72)

	digest, err := h.Hash(long)
	assert.NoError(t, err)
	assert.True(t, h.Verify(long, digest))

	// A different long password differing only past the bcrypt limit
	// must not verify.
	other := long[:75] + "X" + long[76:]
	assert.False(t, h.Verify(other, digest))
}

func TestHasherMalformedDigest(t *testing.T) {
	h := NewHasher(4)

	assert.False(t, h.Verify("whatever", ""))
	assert.False(t, h.Verify("whatever", "not-a-bcrypt-digest"))
	assert.False(t, h.Verify("whatever", "$2a$zz$broken"))
}
