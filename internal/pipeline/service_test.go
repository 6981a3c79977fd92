package pipeline

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ipchunk/internal/chunker"
	"github.com/dmitrijs2005/ipchunk/internal/common"
	"github.com/dmitrijs2005/ipchunk/internal/cryptox"
	"github.com/dmitrijs2005/ipchunk/internal/digest"
	"github.com/dmitrijs2005/ipchunk/internal/logging"
	"github.com/dmitrijs2005/ipchunk/internal/models"
)

type recordingLogger struct {
	logging.Logger
	warnings []string
}

func (r *recordingLogger) Warn(_ context.Context, msg string, _ ...any) {
	r.warnings = append(r.warnings, msg)
}

func newAsset(n int) *models.Asset {
	content := make([]byte, n)
	for i := range content {
		content[i] = byte(i % 251)
	}
	return models.NewAsset(models.AssetParams{
		Content:     content,
		ContentType: "dataset",
		Tags:        []string{"a", "b"},
		IsPremium:   true,
		PriceUSD:    9.75,
		CreatorID:   []byte("creator-1"),
		FileType:    "application/octet-stream",
	})
}

func key(b byte) []byte { return bytes.Repeat([]byte{b}, cryptox.KeySize) }

func TestPublish_ProducesManifest(t *testing.T) {
	s := NewService(nil, cryptox.NewCodec(cryptox.WithWorkers(4)))
	asset := newAsset(500_000)

	res, err := s.Publish(context.Background(), asset, key(1), 4)
	require.NoError(t, err)

	assert.Equal(t, 62500, res.ChunkSize)
	require.Len(t, res.Chunks, 8)
	assert.Equal(t, 8, asset.ChunkCount())

	m := res.Manifest
	assert.Equal(t, 8, m.Metadata.ChunkCount)
	assert.Equal(t, digest.FullContentHash(asset.Content()).Bytes(), m.AssetHash)
	assert.Equal(t, res.AssetHash.Bytes(), m.AssetHash)
	assert.Equal(t, uint64(9), m.Price)
	assert.True(t, m.IsPremium)
	assert.Equal(t, []byte("creator-1"), m.CreatorID)
	assert.Equal(t, "random", m.NonceMode)
	assert.Equal(t, "sha256", m.DigestAlgorithm)
	assert.Equal(t, cryptox.KeyFingerprint(key(1)), m.KeyFingerprint)
	assert.False(t, m.CreatedAt.IsZero())

	for i, c := range res.Chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, c.Hash, m.ChunkHashes[i])
		assert.Equal(t, "application/octet-stream", c.FileType)
	}
}

func TestPublish_ChunkCountWithinBounds(t *testing.T) {
	s := NewService(nil, cryptox.NewCodec(cryptox.WithNonceMode(cryptox.NonceZero)))
	ctx := context.Background()

	for _, n := range []int{0, 1, 1023, 1024, 5000, 70_000} {
		for _, minChunks := range []int{1, 3, 200} {
			asset := newAsset(n)
			res, err := s.Publish(ctx, asset, key(2), minChunks)
			require.NoError(t, err)

			assert.LessOrEqual(t, len(res.Chunks), chunker.MaxChunks)
			assert.GreaterOrEqual(t, len(res.Chunks), 1)
			assert.Equal(t, chunker.Count(uint64(n), res.ChunkSize), len(res.Chunks))
		}
	}
}

func TestPublish_InvalidKeyLeavesAssetUntouched(t *testing.T) {
	s := NewService(nil, nil)
	asset := newAsset(100)

	res, err := s.Publish(context.Background(), asset, make([]byte, 16), 1)
	require.ErrorIs(t, err, common.ErrEncryption)
	require.ErrorIs(t, err, common.ErrInvalidKeyLength)
	assert.Nil(t, res)
	assert.Equal(t, 0, asset.ChunkCount())
}

func TestPublish_NilAsset(t *testing.T) {
	_, err := NewService(nil, nil).Publish(context.Background(), nil, key(1), 1)
	require.ErrorIs(t, err, common.ErrMalformedInput)
}

func TestPublish_ZeroNonceWarns(t *testing.T) {
	log := &recordingLogger{Logger: logging.Nop()}
	s := NewService(log, cryptox.NewCodec(cryptox.WithNonceMode(cryptox.NonceZero)))

	_, err := s.Publish(context.Background(), newAsset(10), key(1), 1)
	require.NoError(t, err)
	assert.Len(t, log.warnings, 1)

	log.warnings = nil
	s = NewService(log, cryptox.NewCodec())
	_, err = s.Publish(context.Background(), newAsset(10), key(1), 1)
	require.NoError(t, err)
	assert.Empty(t, log.warnings)
}

func TestReassemble_AnyOrder(t *testing.T) {
	s := NewService(nil, nil)
	asset := newAsset(5000)

	res, err := s.Publish(context.Background(), asset, key(3), 5)
	require.NoError(t, err)
	require.Greater(t, len(res.Chunks), 1)

	shuffled := slices.Clone(res.Chunks)
	slices.Reverse(shuffled)

	got, err := s.Reassemble(context.Background(), shuffled, key(3))
	require.NoError(t, err)
	assert.Equal(t, asset.Content(), got)
	require.NoError(t, s.VerifyContent(res.Manifest, got))
}

func TestReassemble_IncompleteSet(t *testing.T) {
	s := NewService(nil, nil)
	res, err := s.Publish(context.Background(), newAsset(5000), key(3), 5)
	require.NoError(t, err)

	tests := []struct {
		name   string
		chunks []models.Chunk
	}{
		{"empty", nil},
		{"gap", append(slices.Clone(res.Chunks[:1]), res.Chunks[2:]...)},
		{"duplicate", append(slices.Clone(res.Chunks), res.Chunks[0])},
		{"missing first", res.Chunks[1:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Reassemble(context.Background(), tt.chunks, key(3))
			require.ErrorIs(t, err, common.ErrMalformedInput)
		})
	}
}

func TestReassemble_WrongKey(t *testing.T) {
	s := NewService(nil, nil)
	res, err := s.Publish(context.Background(), newAsset(100), key(1), 1)
	require.NoError(t, err)

	_, err = s.Reassemble(context.Background(), res.Chunks, key(2))
	require.ErrorIs(t, err, common.ErrDecryption)
}

func TestVerifyContent_Mismatch(t *testing.T) {
	s := NewService(nil, nil)
	asset := newAsset(100)
	res, err := s.Publish(context.Background(), asset, key(1), 1)
	require.NoError(t, err)

	tampered := bytes.Clone(asset.Content())
	tampered[0] ^= 1
	require.ErrorIs(t, s.VerifyContent(res.Manifest, tampered), common.ErrMalformedInput)
	require.ErrorIs(t, s.VerifyContent(nil, tampered), common.ErrMalformedInput)
}

func TestFetchOrderedAndOpen(t *testing.T) {
	s := NewService(nil, cryptox.NewCodec(cryptox.WithDigest(digest.BLAKE3)))
	asset := newAsset(20_000)
	ctx := context.Background()

	res, err := s.Publish(ctx, asset, key(4), 3)
	require.NoError(t, err)

	src := NewMemorySource(res.Chunks...)

	chunks, err := s.FetchOrdered(ctx, res.Manifest, src)
	require.NoError(t, err)
	assert.Equal(t, res.Chunks, chunks)

	opened, err := s.Open(ctx, res.Manifest, src, key(4))
	require.NoError(t, err)
	assert.Equal(t, asset.Content(), opened.Content())
	assert.Equal(t, asset.Metadata(), opened.Metadata())
	assert.Equal(t, asset.Price(), opened.Price())
}

func TestFetchOrdered_Failures(t *testing.T) {
	s := NewService(nil, nil)
	ctx := context.Background()
	res, err := s.Publish(ctx, newAsset(5000), key(1), 3)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.Chunks), 2)

	t.Run("missing", func(t *testing.T) {
		src := NewMemorySource(res.Chunks[1:]...)
		_, err := s.FetchOrdered(ctx, res.Manifest, src)
		require.ErrorIs(t, err, ErrChunkNotFound)
	})

	t.Run("tampered data", func(t *testing.T) {
		bad := res.Chunks[0]
		bad.Data = bytes.Clone(bad.Data)
		bad.Data[5] ^= 0x80
		src := NewMemorySource(res.Chunks...)
		src.Put(bad)
		_, err := s.FetchOrdered(ctx, res.Manifest, src)
		require.ErrorIs(t, err, common.ErrMalformedInput)
	})

	t.Run("wrong index", func(t *testing.T) {
		bad := res.Chunks[0]
		bad.Index = 1
		src := NewMemorySource(append([]models.Chunk{bad}, res.Chunks[1:]...)...)
		_, err := s.FetchOrdered(ctx, res.Manifest, src)
		require.ErrorIs(t, err, common.ErrMalformedInput)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.FetchOrdered(cctx, res.Manifest, NewMemorySource(res.Chunks...))
		require.True(t, errors.Is(err, context.Canceled))
	})
}

func TestOpen_WrongKeyRejectedByFingerprint(t *testing.T) {
	s := NewService(nil, nil)
	ctx := context.Background()
	res, err := s.Publish(ctx, newAsset(100), key(1), 1)
	require.NoError(t, err)

	_, err = s.Open(ctx, res.Manifest, NewMemorySource(res.Chunks...), key(2))
	require.ErrorIs(t, err, common.ErrDecryption)
}

func TestCheckKey_NoFingerprint(t *testing.T) {
	require.NoError(t, CheckKey(&models.Manifest{}, key(9)))
}

func TestRekey(t *testing.T) {
	s := NewService(nil, nil)
	ctx := context.Background()
	asset := newAsset(5000)

	res, err := s.Publish(ctx, asset, key(1), 3)
	require.NoError(t, err)

	rekeyed, err := s.Rekey(ctx, res.Chunks, key(1), key(2))
	require.NoError(t, err)
	require.Len(t, rekeyed, len(res.Chunks))

	m, err := RebindManifest(res.Manifest, rekeyed, key(2))
	require.NoError(t, err)
	assert.Equal(t, res.Manifest.AssetHash, m.AssetHash)
	assert.Equal(t, cryptox.KeyFingerprint(key(2)), m.KeyFingerprint)
	assert.Equal(t, cryptox.KeyFingerprint(key(1)), res.Manifest.KeyFingerprint, "original manifest untouched")

	opened, err := s.Open(ctx, m, NewMemorySource(rekeyed...), key(2))
	require.NoError(t, err)
	assert.Equal(t, asset.Content(), opened.Content())

	_, err = s.Reassemble(ctx, rekeyed, key(1))
	require.ErrorIs(t, err, common.ErrDecryption)
}

func TestRekey_WrongOldKey(t *testing.T) {
	s := NewService(nil, nil)
	res, err := s.Publish(context.Background(), newAsset(100), key(1), 1)
	require.NoError(t, err)

	out, err := s.Rekey(context.Background(), res.Chunks, key(3), key(2))
	require.ErrorIs(t, err, common.ErrDecryption)
	assert.Nil(t, out)
}

func TestOpen_ZeroNonceRepeatedRanges(t *testing.T) {
	s := NewService(nil, cryptox.NewCodec(cryptox.WithNonceMode(cryptox.NonceZero)))
	ctx := context.Background()
	asset := models.NewAsset(models.AssetParams{Content: make([]byte, 300*1024), FileType: "bin"})

	res, err := s.Publish(ctx, asset, key(1), 4)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 5)
	// equal plaintext ranges seal to equal ciphertext under the zero nonce
	assert.Equal(t, res.Chunks[0].Hash, res.Chunks[3].Hash)

	src := NewMemorySource(res.Chunks...)

	chunks, err := s.FetchOrdered(ctx, res.Manifest, src)
	require.NoError(t, err)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}

	opened, err := s.Open(ctx, res.Manifest, src, key(1))
	require.NoError(t, err)
	assert.Equal(t, asset.Content(), opened.Content())

	rekeyed, err := s.Rekey(ctx, chunks, key(1), key(2))
	require.NoError(t, err)
	m, err := RebindManifest(res.Manifest, rekeyed, key(2))
	require.NoError(t, err)
	opened, err = s.Open(ctx, m, NewMemorySource(rekeyed...), key(2))
	require.NoError(t, err)
	assert.Equal(t, asset.Content(), opened.Content())
}

func TestMemorySource_SharedHash(t *testing.T) {
	h := bytes.Repeat([]byte{7}, 32)
	src := NewMemorySource(
		models.Chunk{Hash: h, Index: 0, Data: []byte("a")},
		models.Chunk{Hash: h, Index: 2, Data: []byte("b")},
	)
	ctx := context.Background()

	c, err := src.FetchChunk(ctx, h, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), c.Data)

	c, err = src.FetchChunk(ctx, h, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), c.Data)

	// unknown index falls back to the first stored chunk
	c, err = src.FetchChunk(ctx, h, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Index)

	src.Put(models.Chunk{Hash: h, Index: 2, Data: []byte("c")})
	c, err = src.FetchChunk(ctx, h, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), c.Data)

	_, err = src.FetchChunk(ctx, make([]byte, 32), 0)
	require.ErrorIs(t, err, ErrChunkNotFound)
}
