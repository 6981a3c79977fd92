package models

import "time"

// Manifest describes a published asset: its identity, metadata with the
// final chunk count, and the ordered chunk hashes needed to fetch and
// reassemble it.
type Manifest struct {
	// AssetHash is the full-content digest of the plaintext.
	AssetHash []byte
	Metadata  Metadata
	IsPremium bool
	Price     uint64
	CreatorID []byte
	// ChunkHashes are ordered by chunk index.
	ChunkHashes [][]byte
	// NonceMode and DigestAlgorithm record how the chunks were produced so
	// a reader can configure a matching codec.
	NonceMode       string
	DigestAlgorithm string
	// KeyFingerprint lets a reader reject a wrong key before decrypting.
	KeyFingerprint []byte
	CreatedAt      time.Time
}
