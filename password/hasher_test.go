package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Cheap parameters keep the argon2 tests fast.
var testParams = &Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestLegacyIsDeterministic(t *testing.T) {
	h := Legacy{}
	a, err := h.Hash("secret1")
	require.NoError(t, err)
	b, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLegacyKnownDigest(t *testing.T) {
	digest, err := Legacy{}.Hash("password")
	require.NoError(t, err)
	assert.Equal(t, "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8", digest)
}

func TestLegacyVerify(t *testing.T) {
	h := Legacy{}
	for _, p := range []string{"", "secret1", "pässwörd", strings.Repeat("x", 200)} {
		digest, err := h.Hash(p)
		require.NoError(t, err)
		assert.True(t, h.Verify(p, digest), "verify(%q)", p)
		assert.False(t, h.Verify(p+"!", digest), "verify(%q+!)", p)
	}
}

func TestArgon2RoundTrip(t *testing.T) {
	h := NewArgon2(testParams)
	digest, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$argon2id$"))
	assert.True(t, h.Verify("secret1", digest))
	assert.False(t, h.Verify("secret2", digest))

	again, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, digest, again, "salted digests must differ")
}

func TestArgon2AcceptsLegacyDigest(t *testing.T) {
	legacy, err := Legacy{}.Hash("secret1")
	require.NoError(t, err)

	h := NewArgon2(testParams)
	assert.True(t, h.Verify("secret1", legacy))
	assert.False(t, h.Verify("nope", legacy))
	assert.False(t, h.Verify("secret1", "$argon2id$garbage"))
}

func TestArgon2RejectsDegenerateDigests(t *testing.T) {
	h := NewArgon2(testParams)
	for _, digest := range []string{
		"$argon2id$v=19$m=1024,t=0,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=1024,t=1,p=0$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$",
		"$argon2id$v=19$m=1024,t=1,p=1$$a2V5a2V5a2V5a2V5",
	} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("anything", digest), digest)
		})
	}
}

func TestNewScheme(t *testing.T) {
	h, err := New("")
	require.NoError(t, err)
	assert.IsType(t, Legacy{}, h)

	h, err = New(SchemeArgon2id)
	require.NoError(t, err)
	assert.IsType(t, &Argon2{}, h)

	_, err = New("md5")
	assert.Error(t, err)
}
