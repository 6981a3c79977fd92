package pipeline

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/ipchunk/internal/models"
)

// ErrChunkNotFound is returned by MemorySource for an unknown hash.
var ErrChunkNotFound = errors.New("chunk not found")

// MemorySource is a ChunkSource backed by a map keyed by chunk hash.
// Identical ranges sealed under the zero nonce share a hash, so every hash
// keeps all chunks stored under it.
type MemorySource struct {
	mu     sync.RWMutex
	chunks map[string][]models.Chunk
}

// NewMemorySource returns a MemorySource holding chunks.
func NewMemorySource(chunks ...models.Chunk) *MemorySource {
	s := &MemorySource{chunks: make(map[string][]models.Chunk, len(chunks))}
	for _, c := range chunks {
		s.Put(c)
	}
	return s
}

// Put stores c, replacing a chunk with the same hash and index.
func (s *MemorySource) Put(c models.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := hex.EncodeToString(c.Hash)
	for i, old := range s.chunks[k] {
		if old.Index == c.Index {
			s.chunks[k][i] = c
			return
		}
	}
	s.chunks[k] = append(s.chunks[k], c)
}

// FetchChunk implements ChunkSource. It prefers the chunk stored at index
// and otherwise returns the first chunk stored under hash.
func (s *MemorySource) FetchChunk(_ context.Context, hash []byte, index int) (models.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := s.chunks[hex.EncodeToString(hash)]
	if len(candidates) == 0 {
		return models.Chunk{}, fmt.Errorf("%w: %x", ErrChunkNotFound, hash)
	}
	for _, c := range candidates {
		if c.Index == index {
			return c, nil
		}
	}
	return candidates[0], nil
}
