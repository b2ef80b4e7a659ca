// Package anonymizer produces one-way digests for column values. A Hasher
// carries a random salt generated once per process; digests are stable for
// the lifetime of that Hasher and differ across runs.
package anonymizer

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/David-Botos/mart-export/pkg/converter"
)

// saltBytes is the number of random bytes in a run salt (hex encoded to 64 chars)
const saltBytes = 32

// Hasher computes salted SHA-256 digests
type Hasher struct {
	salt string
}

// NewHasher creates a Hasher with a fresh cryptographically random salt
func NewHasher() (*Hasher, error) {
	salt, err := newSalt()
	if err != nil {
		return nil, err
	}
	return &Hasher{salt: salt}, nil
}

// newHasherWithSalt is used by tests that need a fixed salt
func newHasherWithSalt(salt string) *Hasher {
	return &Hasher{salt: salt}
}

func newSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate run salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Digest returns the hex SHA-256 of the value's canonical text followed by salt
func (h *Hasher) Digest(value interface{}, salt string) string {
	sum := sha256.Sum256([]byte(converter.FormatValue(value) + salt))
	return hex.EncodeToString(sum[:])
}

// Anonymize replaces a value with digest(digest(value, runSalt), "").
// NULL is hashed through its canonical empty text like any other value.
//
// The outer unsalted pass matches the existing exporter's digest format.
// A single salted Digest is enough if that parity is not needed.
func (h *Hasher) Anonymize(value interface{}) interface{} {
	return h.Digest(h.Digest(value, h.salt), "")
}
