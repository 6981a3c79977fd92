package pipeline

import (
	"bytes"
	"context"
	"crypto/subtle"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/ipchunk/internal/chunker"
	"github.com/dmitrijs2005/ipchunk/internal/common"
	"github.com/dmitrijs2005/ipchunk/internal/cryptox"
	"github.com/dmitrijs2005/ipchunk/internal/digest"
	"github.com/dmitrijs2005/ipchunk/internal/logging"
	"github.com/dmitrijs2005/ipchunk/internal/models"
)

// ChunkSource resolves a chunk by its content address. index is the
// position the manifest lists the hash at; sources that can hold several
// chunks with the same hash use it to pick one, others may ignore it.
type ChunkSource interface {
	FetchChunk(ctx context.Context, hash []byte, index int) (models.Chunk, error)
}

// Result is the outcome of publishing an asset.
type Result struct {
	Manifest  *models.Manifest
	Chunks    []models.Chunk
	ChunkSize int
	AssetHash digest.Hash
}

// Service runs publish and read-back operations with one codec.
type Service struct {
	logger logging.Logger
	codec  *cryptox.Codec
	now    func() time.Time
}

// NewService returns a Service. A nil logger discards logs and a nil codec
// means cryptox.NewCodec().
func NewService(logger logging.Logger, codec *cryptox.Codec) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	if codec == nil {
		codec = cryptox.NewCodec()
	}
	return &Service{
		logger: logger,
		codec:  codec,
		now:    time.Now,
	}
}

// Codec returns the codec chunks are sealed and opened with.
func (s *Service) Codec() *cryptox.Codec {
	return s.codec
}

// Publish chunks and seals asset under key. minChunks is usually the number
// of storage nodes the chunks will be spread over.
//
// On success the asset's chunk count is updated and the returned manifest
// carries the same count. On failure the asset is left untouched.
func (s *Service) Publish(ctx context.Context, asset *models.Asset, key []byte, minChunks int) (*Result, error) {
	if asset == nil {
		return nil, fmt.Errorf("%w: nil asset", common.ErrMalformedInput)
	}

	start := s.now()
	if s.codec.NonceMode() == cryptox.NonceZero {
		s.logger.Warn(ctx, "sealing with the all-zero nonce; chunks under the same key are not confidential")
	}

	chunkSize := chunker.ComputeChunkSize(asset.FileSize(), minChunks)
	s.logger.Debug(ctx, "chunk size decided",
		"file_size", asset.FileSize(),
		"min_chunks", minChunks,
		"chunk_size", chunkSize,
		"expected_chunks", chunker.Count(asset.FileSize(), chunkSize),
	)

	chunks, err := s.codec.EncryptChunks(ctx, asset.Content(), key, chunkSize, asset.FileType())
	if err != nil {
		return nil, err
	}

	assetHash := digest.FullContentHash(asset.Content())
	asset.SetChunkCount(len(chunks))

	hashes := make([][]byte, len(chunks))
	for i, c := range chunks {
		hashes[i] = c.Hash
	}

	m := &models.Manifest{
		AssetHash:       assetHash.Bytes(),
		Metadata:        asset.Metadata(),
		IsPremium:       asset.IsPremium(),
		Price:           asset.Price(),
		CreatorID:       asset.CreatorID(),
		ChunkHashes:     hashes,
		NonceMode:       string(s.codec.NonceMode()),
		DigestAlgorithm: string(s.codec.Algorithm()),
		KeyFingerprint:  cryptox.KeyFingerprint(key),
		CreatedAt:       s.now().UTC(),
	}

	s.logger.Info(ctx, "asset published",
		"asset", assetHash.String(),
		"chunks", len(chunks),
		"chunk_size", chunkSize,
		"elapsed", s.now().Sub(start),
	)

	return &Result{
		Manifest:  m,
		Chunks:    chunks,
		ChunkSize: chunkSize,
		AssetHash: assetHash,
	}, nil
}

// orderChunks returns chunks sorted by index, requiring indices 0..n-1 with
// no gaps and no duplicates.
func orderChunks(chunks []models.Chunk) ([]models.Chunk, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks", common.ErrMalformedInput)
	}

	sorted := slices.Clone(chunks)
	slices.SortFunc(sorted, func(a, b models.Chunk) int { return a.Index - b.Index })

	for i, c := range sorted {
		if c.Index != i {
			return nil, fmt.Errorf("%w: expected chunk index %d, found %d", common.ErrMalformedInput, i, c.Index)
		}
	}
	return sorted, nil
}

// Reassemble opens chunks under key and concatenates the plaintext in index
// order. The chunks may be passed in any order but must form a complete set.
func (s *Service) Reassemble(ctx context.Context, chunks []models.Chunk, key []byte) ([]byte, error) {
	sorted, err := orderChunks(chunks)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, c := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		plain, err := s.codec.DecryptChunk(c, key)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c.Index, err)
		}
		buf.Write(plain)
	}

	s.logger.Debug(ctx, "chunks reassembled", "chunks", len(sorted), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// VerifyChunk recomputes the chunk's content address.
func (s *Service) VerifyChunk(chunk models.Chunk) error {
	return s.codec.VerifyChunk(chunk)
}

// VerifyContent checks reassembled content against the manifest's asset hash.
func (s *Service) VerifyContent(m *models.Manifest, content []byte) error {
	if m == nil {
		return fmt.Errorf("%w: nil manifest", common.ErrMalformedInput)
	}
	want, err := digest.FromBytes(m.AssetHash)
	if err != nil {
		return fmt.Errorf("%w: asset hash: %w", common.ErrMalformedInput, err)
	}
	if got := digest.FullContentHash(content); got != want {
		return fmt.Errorf("%w: content hash %s does not match asset %s", common.ErrMalformedInput, got, want)
	}
	if uint64(len(content)) != m.Metadata.FileSize {
		return fmt.Errorf("%w: content is %d bytes, manifest says %d", common.ErrMalformedInput, len(content), m.Metadata.FileSize)
	}
	return nil
}

// CheckKey compares key with the fingerprint recorded in the manifest.
// Manifests without a fingerprint accept any key.
func CheckKey(m *models.Manifest, key []byte) error {
	if len(m.KeyFingerprint) == 0 {
		return nil
	}
	if subtle.ConstantTimeCompare(m.KeyFingerprint, cryptox.KeyFingerprint(key)) != 1 {
		return fmt.Errorf("%w: key does not match manifest fingerprint", common.ErrDecryption)
	}
	return nil
}

// FetchOrdered resolves every chunk listed in the manifest through src, in
// manifest order. Each chunk must hash to the address it was fetched by and
// sit at the index the manifest lists it at.
func (s *Service) FetchOrdered(ctx context.Context, m *models.Manifest, src ChunkSource) ([]models.Chunk, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil manifest", common.ErrMalformedInput)
	}

	chunks := make([]models.Chunk, 0, len(m.ChunkHashes))
	for i, h := range m.ChunkHashes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c, err := src.FetchChunk(ctx, h, i)
		if err != nil {
			return nil, fmt.Errorf("fetching chunk %d: %w", i, err)
		}
		if !bytes.Equal(c.Hash, h) {
			return nil, fmt.Errorf("%w: chunk %d: source returned hash %x for %x", common.ErrMalformedInput, i, c.Hash, h)
		}
		if c.Index != i {
			return nil, fmt.Errorf("%w: chunk %x has index %d, manifest lists it at %d", common.ErrMalformedInput, h, c.Index, i)
		}
		if err := s.codec.VerifyChunk(c); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}

	return chunks, nil
}

// Open fetches, verifies and reassembles the asset described by m and
// rebuilds it with the manifest's metadata. The file type reported by the
// first chunk wins over the manifest's when both are set, matching what a
// reader that only sees chunks would infer.
func (s *Service) Open(ctx context.Context, m *models.Manifest, src ChunkSource, key []byte) (*models.Asset, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil manifest", common.ErrMalformedInput)
	}
	if err := CheckKey(m, key); err != nil {
		return nil, err
	}

	chunks, err := s.FetchOrdered(ctx, m, src)
	if err != nil {
		return nil, err
	}

	content, err := s.Reassemble(ctx, chunks, key)
	if err != nil {
		return nil, err
	}
	if err := s.VerifyContent(m, content); err != nil {
		return nil, err
	}

	md := m.Metadata
	if ft := chunks[0].FileType; ft != "" {
		md.FileType = ft
	}

	s.logger.Info(ctx, "asset opened", "asset", fmt.Sprintf("%x", m.AssetHash), "bytes", len(content))
	return models.RestoreAsset(content, md, m.IsPremium, m.Price, m.CreatorID), nil
}

// Rekey re-encrypts every chunk from oldKey to newKey without touching the
// original asset. The result keeps input order; either every chunk is
// re-encrypted or an error is returned.
func (s *Service) Rekey(ctx context.Context, chunks []models.Chunk, oldKey, newKey []byte) ([]models.Chunk, error) {
	out := make([]models.Chunk, len(chunks))
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rc, err := s.codec.ReencryptChunk(c, oldKey, newKey)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c.Index, err)
		}
		out[i] = rc
	}

	s.logger.Info(ctx, "chunks re-keyed", "chunks", len(out))
	return out, nil
}

// RebindManifest returns a copy of m describing chunks sealed under key,
// typically the output of Rekey. chunks must be complete.
func RebindManifest(m *models.Manifest, chunks []models.Chunk, key []byte) (*models.Manifest, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil manifest", common.ErrMalformedInput)
	}
	sorted, err := orderChunks(chunks)
	if err != nil {
		return nil, err
	}

	out := *m
	out.ChunkHashes = make([][]byte, len(sorted))
	for i, c := range sorted {
		out.ChunkHashes[i] = c.Hash
	}
	out.KeyFingerprint = cryptox.KeyFingerprint(key)
	out.Metadata.ChunkCount = len(sorted)
	return &out, nil
}
