package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const (
	SchemeSHA256   = "sha256"
	SchemeArgon2id = "argon2id"
)

// Hasher turns a plaintext password into a stored digest and checks a
// plaintext against a digest.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// New returns the hasher for the configured scheme.
func New(scheme string) (Hasher, error) {
	switch scheme {
	case "", SchemeSHA256:
		return Legacy{}, nil
	case SchemeArgon2id:
		return NewArgon2(nil), nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}

// Legacy is the unsalted SHA-256 hex digest existing accounts were stored
// with. It is deterministic: the same plaintext always yields the same digest.
type Legacy struct{}

func (Legacy) Hash(plaintext string) (string, error) {
	return legacyDigest(plaintext), nil
}

func (Legacy) Verify(plaintext, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(legacyDigest(plaintext)), []byte(digest)) == 1
}

func legacyDigest(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func isLegacyDigest(digest string) bool {
	if len(digest) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}
