package models

import "encoding/hex"

// Chunk is one encrypted piece of an asset. Chunks are derived from an
// asset and never modified afterwards.
type Chunk struct {
	// Hash is the digest of Data, i.e. of the ciphertext, not the plaintext.
	Hash []byte
	// Data is the sealed payload including the authentication tag.
	Data []byte
	// Index is the zero-based position in the original split.
	Index int
	// FileType is copied from the parent asset's metadata.
	FileType string
}

// HashHex returns the hex encoded chunk hash.
func (c Chunk) HashHex() string {
	return hex.EncodeToString(c.Hash)
}
