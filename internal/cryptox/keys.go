// Package cryptox implements the chunk codec: AES-256-GCM sealing of content
// ranges into content-addressed chunks, and the matching decryption. It also
// turns host-supplied key material into AES-256 keys.
package cryptox

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/ipchunk/internal/common"
)

// KeyFingerprint returns sha256(key). It is stored in manifests so a reader
// can reject a wrong key before attempting to open any chunk.
func KeyFingerprint(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// DeriveKey stretches a passphrase into a 32-byte key with argon2id.
func DeriveKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

// ParseKey accepts key material as either KeySize raw bytes or its hex
// encoding (surrounding whitespace is ignored).
func ParseKey(raw []byte) ([]byte, error) {
	if len(raw) == KeySize {
		return bytes.Clone(raw), nil
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == hex.EncodedLen(KeySize) {
		key := make([]byte, KeySize)
		if _, err := hex.Decode(key, trimmed); err != nil {
			return nil, fmt.Errorf("%w: decoding hex key: %w", common.ErrInvalidKeyLength, err)
		}
		return key, nil
	}

	return nil, fmt.Errorf("%w: key must be %d raw bytes or %d hex characters, got %d bytes",
		common.ErrInvalidKeyLength, KeySize, hex.EncodedLen(KeySize), len(raw))
}
