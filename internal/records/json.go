package records

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ipchunk/internal/common"
	"github.com/dmitrijs2005/ipchunk/internal/models"
)

type metadataJSON struct {
	ContentType string   `json:"content_type"`
	Tags        []string `json:"tags"`
	Version     string   `json:"version"`
	ChunkCount  int      `json:"chunk_count"`
	FileSize    uint64   `json:"file_size"`
	FileType    string   `json:"file_type"`
}

type manifestJSON struct {
	SchemaVersion   int          `json:"schema_version"`
	AssetHash       string       `json:"asset_hash"`
	Metadata        metadataJSON `json:"metadata"`
	IsPremium       bool         `json:"is_premium"`
	Price           uint64       `json:"price"`
	CreatorID       string       `json:"creator_id,omitempty"`
	ChunkHashes     []string     `json:"chunk_hashes"`
	NonceMode       string       `json:"nonce_mode"`
	DigestAlgorithm string       `json:"digest_algorithm"`
	KeyFingerprint  string       `json:"key_fingerprint,omitempty"`
	CreatedAt       *time.Time   `json:"created_at,omitempty"`
}

// ManifestJSON renders m as indented JSON with hex encoded byte fields.
func ManifestJSON(m *models.Manifest) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil manifest", common.ErrMalformedInput)
	}

	tags := m.Metadata.Tags
	if tags == nil {
		tags = []string{}
	}

	j := manifestJSON{
		SchemaVersion: SchemaVersion,
		AssetHash:     hex.EncodeToString(m.AssetHash),
		Metadata: metadataJSON{
			ContentType: m.Metadata.ContentType,
			Tags:        tags,
			Version:     m.Metadata.Version,
			ChunkCount:  m.Metadata.ChunkCount,
			FileSize:    m.Metadata.FileSize,
			FileType:    m.Metadata.FileType,
		},
		IsPremium:       m.IsPremium,
		Price:           m.Price,
		CreatorID:       hex.EncodeToString(m.CreatorID),
		ChunkHashes:     make([]string, len(m.ChunkHashes)),
		NonceMode:       m.NonceMode,
		DigestAlgorithm: m.DigestAlgorithm,
		KeyFingerprint:  hex.EncodeToString(m.KeyFingerprint),
	}
	for i, h := range m.ChunkHashes {
		j.ChunkHashes[i] = hex.EncodeToString(h)
	}
	if !m.CreatedAt.IsZero() {
		t := m.CreatedAt.UTC()
		j.CreatedAt = &t
	}

	return json.MarshalIndent(j, "", "  ")
}

// ParseManifestJSON reads the output of ManifestJSON back into a Manifest.
func ParseManifestJSON(b []byte) (*models.Manifest, error) {
	var j manifestJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return nil, fmt.Errorf("%w: decoding manifest json: %w", common.ErrMalformedInput, err)
	}
	if err := checkSchema("manifest", j.SchemaVersion); err != nil {
		return nil, err
	}

	decode := func(field, s string) ([]byte, error) {
		if s == "" {
			return nil, nil
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", common.ErrMalformedInput, field, err)
		}
		return b, nil
	}

	assetHash, err := decode("asset_hash", j.AssetHash)
	if err != nil {
		return nil, err
	}
	if err := checkHash("asset", assetHash); err != nil {
		return nil, err
	}
	creator, err := decode("creator_id", j.CreatorID)
	if err != nil {
		return nil, err
	}
	fingerprint, err := decode("key_fingerprint", j.KeyFingerprint)
	if err != nil {
		return nil, err
	}

	hashes := make([][]byte, len(j.ChunkHashes))
	for i, s := range j.ChunkHashes {
		h, err := decode("chunk_hashes", s)
		if err != nil {
			return nil, err
		}
		if err := checkHash(fmt.Sprintf("chunk %d", i), h); err != nil {
			return nil, err
		}
		hashes[i] = h
	}

	if j.Metadata.ChunkCount < 0 {
		return nil, fmt.Errorf("%w: chunk count %d out of range", common.ErrMalformedInput, j.Metadata.ChunkCount)
	}

	m := &models.Manifest{
		AssetHash: assetHash,
		Metadata: models.Metadata{
			ContentType: j.Metadata.ContentType,
			Tags:        j.Metadata.Tags,
			Version:     j.Metadata.Version,
			ChunkCount:  j.Metadata.ChunkCount,
			FileSize:    j.Metadata.FileSize,
			FileType:    j.Metadata.FileType,
		},
		IsPremium:       j.IsPremium,
		Price:           j.Price,
		CreatorID:       creator,
		ChunkHashes:     hashes,
		NonceMode:       j.NonceMode,
		DigestAlgorithm: j.DigestAlgorithm,
		KeyFingerprint:  fingerprint,
	}
	if j.CreatedAt != nil {
		m.CreatedAt = j.CreatedAt.UTC()
	}
	return m, nil
}
