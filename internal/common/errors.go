// Package common defines sentinel errors and small byte helpers shared by the
// chunking pipeline and its host. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Key errors.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// Cipher-layer errors. Decryption failures are deliberately opaque:
	// a wrong key, a tampered payload and a truncated payload all look the same.
	ErrEncryption = errors.New("encryption failed")
	ErrDecryption = errors.New("decryption failed")

	// Structurally invalid records handed over by the host.
	ErrMalformedInput = errors.New("malformed input")
)
