package records

import (
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/ipchunk/internal/common"
	"github.com/dmitrijs2005/ipchunk/internal/digest"
	"github.com/dmitrijs2005/ipchunk/internal/models"
)

type metadataRecord struct {
	ContentType string   `cbor:"1,keyasint,omitempty"`
	Tags        []string `cbor:"2,keyasint,omitempty"`
	Version     string   `cbor:"3,keyasint"`
	ChunkCount  int64    `cbor:"4,keyasint"`
	FileSize    uint64   `cbor:"5,keyasint"`
	FileType    string   `cbor:"6,keyasint,omitempty"`
}

type chunkRecord struct {
	Schema   int    `cbor:"0,keyasint"`
	Index    int64  `cbor:"1,keyasint"`
	Hash     []byte `cbor:"2,keyasint"`
	Data     []byte `cbor:"3,keyasint"`
	FileType string `cbor:"4,keyasint,omitempty"`
}

type assetRecord struct {
	Schema    int            `cbor:"0,keyasint"`
	Content   []byte         `cbor:"1,keyasint"`
	Metadata  metadataRecord `cbor:"2,keyasint"`
	IsPremium bool           `cbor:"3,keyasint"`
	Price     uint64         `cbor:"4,keyasint"`
	CreatorID []byte         `cbor:"5,keyasint,omitempty"`
}

type manifestRecord struct {
	Schema          int            `cbor:"0,keyasint"`
	AssetHash       []byte         `cbor:"1,keyasint"`
	Metadata        metadataRecord `cbor:"2,keyasint"`
	IsPremium       bool           `cbor:"3,keyasint"`
	Price           uint64         `cbor:"4,keyasint"`
	CreatorID       []byte         `cbor:"5,keyasint,omitempty"`
	ChunkHashes     [][]byte       `cbor:"6,keyasint"`
	NonceMode       string         `cbor:"7,keyasint"`
	DigestAlgorithm string         `cbor:"8,keyasint"`
	KeyFingerprint  []byte         `cbor:"9,keyasint,omitempty"`
	// unix nanoseconds, zero when unset
	CreatedAt int64 `cbor:"10,keyasint,omitempty"`
}

func fromMetadata(md models.Metadata) metadataRecord {
	return metadataRecord{
		ContentType: md.ContentType,
		Tags:        md.Tags,
		Version:     md.Version,
		ChunkCount:  int64(md.ChunkCount),
		FileSize:    md.FileSize,
		FileType:    md.FileType,
	}
}

func (r metadataRecord) toModel() (models.Metadata, error) {
	if r.ChunkCount < 0 || r.ChunkCount > math.MaxInt32 {
		return models.Metadata{}, fmt.Errorf("%w: chunk count %d out of range", common.ErrMalformedInput, r.ChunkCount)
	}
	return models.Metadata{
		ContentType: r.ContentType,
		Tags:        r.Tags,
		Version:     r.Version,
		ChunkCount:  int(r.ChunkCount),
		FileSize:    r.FileSize,
		FileType:    r.FileType,
	}, nil
}

func checkHash(kind string, h []byte) error {
	if len(h) != digest.Size {
		return fmt.Errorf("%w: %s hash is %d bytes, want %d", common.ErrMalformedInput, kind, len(h), digest.Size)
	}
	return nil
}

// EncodeChunk serializes a chunk.
func EncodeChunk(c models.Chunk) ([]byte, error) {
	return marshal(chunkRecord{
		Schema:   SchemaVersion,
		Index:    int64(c.Index),
		Hash:     c.Hash,
		Data:     c.Data,
		FileType: c.FileType,
	})
}

// DecodeChunk parses a chunk produced by EncodeChunk. A negative index or a
// hash of the wrong length is rejected with ErrMalformedInput. The hash is
// not checked against the data here.
func DecodeChunk(b []byte) (models.Chunk, error) {
	var r chunkRecord
	if err := unmarshal("chunk", b, &r); err != nil {
		return models.Chunk{}, err
	}
	if err := checkSchema("chunk", r.Schema); err != nil {
		return models.Chunk{}, err
	}
	if r.Index < 0 || r.Index > math.MaxInt32 {
		return models.Chunk{}, fmt.Errorf("%w: chunk index %d out of range", common.ErrMalformedInput, r.Index)
	}
	if err := checkHash("chunk", r.Hash); err != nil {
		return models.Chunk{}, err
	}
	return models.Chunk{
		Hash:     r.Hash,
		Data:     r.Data,
		Index:    int(r.Index),
		FileType: r.FileType,
	}, nil
}

// EncodeAsset serializes an asset including its plaintext content.
func EncodeAsset(a *models.Asset) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil asset", common.ErrMalformedInput)
	}
	return marshal(assetRecord{
		Schema:    SchemaVersion,
		Content:   a.Content(),
		Metadata:  fromMetadata(a.Metadata()),
		IsPremium: a.IsPremium(),
		Price:     a.Price(),
		CreatorID: a.CreatorID(),
	})
}

// DecodeAsset parses an asset produced by EncodeAsset. Stored fields are
// restored as-is; the file size is not re-derived from the content.
func DecodeAsset(b []byte) (*models.Asset, error) {
	var r assetRecord
	if err := unmarshal("asset", b, &r); err != nil {
		return nil, err
	}
	if err := checkSchema("asset", r.Schema); err != nil {
		return nil, err
	}
	md, err := r.Metadata.toModel()
	if err != nil {
		return nil, err
	}
	return models.RestoreAsset(r.Content, md, r.IsPremium, r.Price, r.CreatorID), nil
}

// EncodeManifest serializes a manifest.
func EncodeManifest(m *models.Manifest) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil manifest", common.ErrMalformedInput)
	}
	r := manifestRecord{
		Schema:          SchemaVersion,
		AssetHash:       m.AssetHash,
		Metadata:        fromMetadata(m.Metadata),
		IsPremium:       m.IsPremium,
		Price:           m.Price,
		CreatorID:       m.CreatorID,
		ChunkHashes:     m.ChunkHashes,
		NonceMode:       m.NonceMode,
		DigestAlgorithm: m.DigestAlgorithm,
		KeyFingerprint:  m.KeyFingerprint,
	}
	if !m.CreatedAt.IsZero() {
		r.CreatedAt = m.CreatedAt.UnixNano()
	}
	return marshal(r)
}

// DecodeManifest parses a manifest produced by EncodeManifest.
func DecodeManifest(b []byte) (*models.Manifest, error) {
	var r manifestRecord
	if err := unmarshal("manifest", b, &r); err != nil {
		return nil, err
	}
	if err := checkSchema("manifest", r.Schema); err != nil {
		return nil, err
	}
	if err := checkHash("asset", r.AssetHash); err != nil {
		return nil, err
	}
	for i, h := range r.ChunkHashes {
		if err := checkHash(fmt.Sprintf("chunk %d", i), h); err != nil {
			return nil, err
		}
	}
	md, err := r.Metadata.toModel()
	if err != nil {
		return nil, err
	}

	m := &models.Manifest{
		AssetHash:       r.AssetHash,
		Metadata:        md,
		IsPremium:       r.IsPremium,
		Price:           r.Price,
		CreatorID:       r.CreatorID,
		ChunkHashes:     r.ChunkHashes,
		NonceMode:       r.NonceMode,
		DigestAlgorithm: r.DigestAlgorithm,
		KeyFingerprint:  r.KeyFingerprint,
	}
	if r.CreatedAt != 0 {
		m.CreatedAt = time.Unix(0, r.CreatedAt).UTC()
	}
	return m, nil
}
