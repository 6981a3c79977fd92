// Package digest computes the content addresses used by the chunking
// pipeline: per-chunk hashes over ciphertext and the whole-content hash
// over plaintext.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
)

// Size is the length in bytes of every digest produced by this package.
const Size = 32

// Hash is a 32-byte digest.
type Hash [Size]byte

// String returns the lowercase hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of h as a slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, h[:])
	return b
}

// IsZero reports whether h is the zero value.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ParseHash decodes a 64-character hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("decoding hash %q: %w", s, err)
	}
	if len(b) != Size {
		return h, fmt.Errorf("hash %q is %d bytes, want %d", s, len(b), Size)
	}
	copy(h[:], b)
	return h, nil
}

// FromBytes converts a raw digest slice into a Hash.
func FromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, fmt.Errorf("hash is %d bytes, want %d", len(b), Size)
	}
	copy(h[:], b)
	return h, nil
}

// Algorithm selects the hash function used for chunk content addresses.
type Algorithm string

const (
	// SHA256 is the algorithm the chunk format was introduced with.
	SHA256 Algorithm = "sha256"
	// BLAKE3 is faster on large chunks and produces digests of the same size.
	BLAKE3 Algorithm = "blake3"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = SHA256

// ParseAlgorithm maps a configuration string onto an Algorithm.
// Matching is case-insensitive; the empty string selects DefaultAlgorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultAlgorithm, nil
	case SHA256:
		return SHA256, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("unknown digest algorithm %q", s)
	}
}

// New returns a streaming hasher for alg. Unknown algorithms fall back to
// SHA-256.
func New(alg Algorithm) hash.Hash {
	if alg == BLAKE3 {
		return blake3.New()
	}
	return sha256.New()
}

// Sum hashes data with alg.
func Sum(alg Algorithm, data []byte) Hash {
	if alg == BLAKE3 {
		return Hash(blake3.Sum256(data))
	}
	return Hash(sha256.Sum256(data))
}

// FullContentHash is the whole-asset digest over the unmodified plaintext.
// It is always SHA-256 so asset identities stay stable regardless of which
// algorithm addresses the chunks.
func FullContentHash(content []byte) Hash {
	return Hash(sha256.Sum256(content))
}
