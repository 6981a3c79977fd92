package cryptox

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/ipchunk/internal/chunker"
	"github.com/dmitrijs2005/ipchunk/internal/common"
	"github.com/dmitrijs2005/ipchunk/internal/digest"
	"github.com/dmitrijs2005/ipchunk/internal/models"
)

const (
	// KeySize is the AES-256 key length.
	KeySize = 32
	// NonceSize is the AES-GCM nonce length.
	NonceSize = 12
	// TagSize is the GCM authentication tag appended to every ciphertext.
	TagSize = 16
)

// NonceMode selects how chunk nonces are chosen.
type NonceMode string

const (
	// NonceRandom draws a fresh nonce for every chunk and stores it in front
	// of the ciphertext: Data = nonce || ciphertext || tag.
	NonceRandom NonceMode = "random"

	// NonceZero seals every chunk under the all-zero nonce and stores only
	// ciphertext || tag. It reproduces chunks written by the first version
	// of the format and is insecure: any two chunks sealed under the same
	// key leak their XOR and lose integrity protection.
	NonceZero NonceMode = "zero"
)

// ParseNonceMode maps a configuration string onto a NonceMode. The empty
// string selects NonceRandom.
func ParseNonceMode(s string) (NonceMode, error) {
	switch NonceMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", NonceRandom:
		return NonceRandom, nil
	case NonceZero:
		return NonceZero, nil
	default:
		return "", fmt.Errorf("unknown nonce mode %q", s)
	}
}

var zeroNonce [NonceSize]byte

// Codec seals content into chunks and opens them again with AES-256-GCM.
// A Codec holds no key material and is safe for concurrent use.
type Codec struct {
	nonceMode NonceMode
	algorithm digest.Algorithm
	workers   int
	random    io.Reader
}

// Option configures a Codec.
type Option func(*Codec)

// WithNonceMode sets the nonce mode. Chunks must be opened with the mode
// they were sealed with.
func WithNonceMode(m NonceMode) Option {
	return func(c *Codec) { c.nonceMode = m }
}

// WithDigest sets the algorithm used for chunk hashes.
func WithDigest(alg digest.Algorithm) Option {
	return func(c *Codec) { c.algorithm = alg }
}

// WithWorkers bounds how many chunks are sealed concurrently. Values below
// one mean sequential sealing.
func WithWorkers(n int) Option {
	return func(c *Codec) { c.workers = max(n, 1) }
}

// NewCodec returns a Codec using random nonces, SHA-256 chunk hashes and
// sequential sealing unless overridden by opts.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		nonceMode: NonceRandom,
		algorithm: digest.DefaultAlgorithm,
		workers:   1,
		random:    rand.Reader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NonceMode reports the nonce mode chunks are sealed and opened with.
func (c *Codec) NonceMode() NonceMode { return c.nonceMode }

// Algorithm reports the chunk hash algorithm.
func (c *Codec) Algorithm() digest.Algorithm { return c.algorithm }

// newAEAD builds an AES-256-GCM instance. Only 32-byte keys are accepted
// even though crypto/aes would also take AES-128 and AES-192 keys.
func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", common.ErrInvalidKeyLength, len(key), KeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

// EncryptChunks splits content into chunkSize ranges and seals each one.
// The chunks come back in index order. On the first failure the whole
// operation is abandoned and no chunks are returned.
//
// Ranges have no data dependency on each other, so up to the configured
// number of workers seal in parallel. Cancelling ctx stops scheduling new
// ranges and returns ctx.Err().
func (c *Codec) EncryptChunks(ctx context.Context, content, key []byte, chunkSize int, fileType string) ([]models.Chunk, error) {
	if _, err := newAEAD(key); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrEncryption, err)
	}

	ranges, err := chunker.Split(content, chunkSize)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, len(ranges))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ch, err := c.EncryptChunk(r, key, i, fileType)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			chunks[i] = ch
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// errgroup only reports the parent's cancellation if a worker saw it
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return chunks, nil
}

// EncryptChunk seals a single plaintext range as the chunk at index.
func (c *Codec) EncryptChunk(plaintext, key []byte, index int, fileType string) (models.Chunk, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return models.Chunk{}, fmt.Errorf("%w: %w", common.ErrEncryption, err)
	}

	sealed, err := c.seal(aead, plaintext)
	if err != nil {
		return models.Chunk{}, err
	}

	return models.Chunk{
		Hash:     digest.Sum(c.algorithm, sealed).Bytes(),
		Data:     sealed,
		Index:    index,
		FileType: fileType,
	}, nil
}

func (c *Codec) seal(aead cipher.AEAD, plaintext []byte) ([]byte, error) {
	if c.nonceMode == NonceZero {
		return aead.Seal(nil, zeroNonce[:], plaintext, nil), nil
	}

	out := make([]byte, NonceSize, NonceSize+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(c.random, out); err != nil {
		return nil, fmt.Errorf("%w: generating nonce: %w", common.ErrEncryption, err)
	}

	return aead.Seal(out, out[:NonceSize], plaintext, nil), nil
}

// DecryptChunk opens chunk.Data with key and returns the plaintext range.
// The stored chunk hash is not checked; use VerifyChunk for that.
//
// A wrong key, a tampered or truncated payload and a nonce mode mismatch
// all produce the same ErrDecryption.
func (c *Codec) DecryptChunk(chunk models.Chunk, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryption, err)
	}

	data := chunk.Data
	nonce := zeroNonce[:]
	if c.nonceMode != NonceZero {
		if len(data) < NonceSize+aead.Overhead() {
			return nil, common.ErrDecryption
		}
		nonce, data = data[:NonceSize], data[NonceSize:]
	}

	plaintext, err := aead.Open(nil, nonce, data, nil)
	if err != nil {
		return nil, common.ErrDecryption
	}
	return plaintext, nil
}

// ReencryptChunk opens chunk under oldKey and seals the plaintext under
// newKey, keeping the index and file type.
func (c *Codec) ReencryptChunk(chunk models.Chunk, oldKey, newKey []byte) (models.Chunk, error) {
	plaintext, err := c.DecryptChunk(chunk, oldKey)
	if err != nil {
		return models.Chunk{}, err
	}
	defer common.WipeByteArray(plaintext)

	return c.EncryptChunk(plaintext, newKey, chunk.Index, chunk.FileType)
}

// HashData computes the chunk content address of sealed bytes.
func (c *Codec) HashData(data []byte) digest.Hash {
	return digest.Sum(c.algorithm, data)
}

// VerifyChunk recomputes the hash of chunk.Data and compares it with
// chunk.Hash.
func (c *Codec) VerifyChunk(chunk models.Chunk) error {
	got := c.HashData(chunk.Data)
	want, err := digest.FromBytes(chunk.Hash)
	if err != nil {
		return fmt.Errorf("%w: chunk %d: %w", common.ErrMalformedInput, chunk.Index, err)
	}
	if got != want {
		return fmt.Errorf("%w: chunk %d hash mismatch: stored %s, computed %s",
			common.ErrMalformedInput, chunk.Index, want, got)
	}
	return nil
}
