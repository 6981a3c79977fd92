// Package chunker decides how wide each chunk of an asset should be and
// splits content into those chunks.
package chunker

import (
	"fmt"

	"github.com/dmitrijs2005/ipchunk/internal/common"
)

const (
	KiB = 1024
	MiB = 1024 * KiB

	// Content below SmallFileThreshold uses SmallChunkSize as the base width,
	// content below LargeFileThreshold uses MediumChunkSize, everything else
	// LargeChunkSize.
	SmallFileThreshold = 1 * MiB
	LargeFileThreshold = 10 * MiB

	SmallChunkSize  = 64 * KiB
	MediumChunkSize = 256 * KiB
	LargeChunkSize  = 1 * MiB

	// MaxChunks bounds the per-asset overhead: encryptions, hashes and
	// chunk records.
	MaxChunks = 100

	// MinChunkSize keeps tiny assets from being shredded when minChunks is
	// large. It takes precedence over minChunks.
	MinChunkSize = 1 * KiB
)

// baseChunkSize picks the tier width for fileSize.
func baseChunkSize(fileSize uint64) uint64 {
	switch {
	case fileSize < SmallFileThreshold:
		return SmallChunkSize
	case fileSize < LargeFileThreshold:
		return MediumChunkSize
	default:
		return LargeChunkSize
	}
}

func ceilDiv(a, b uint64) uint64 {
	if a == 0 {
		return 0
	}
	return (a-1)/b + 1
}

// ComputeChunkSize returns the chunk width in bytes for content of fileSize
// bytes that should be spread over at least minChunks pieces.
//
// The tier width gives a first chunk count, which is raised to minChunks and
// capped at MaxChunks. The width is then recomputed so the content splits
// into that many roughly equal pieces, and floored at MinChunkSize.
// minChunks below 1 is treated as 1. A zero fileSize yields MinChunkSize.
func ComputeChunkSize(fileSize uint64, minChunks int) int {
	if minChunks < 1 {
		minChunks = 1
	}

	numChunks := ceilDiv(fileSize, baseChunkSize(fileSize))
	if numChunks < uint64(minChunks) {
		numChunks = uint64(minChunks)
	}
	if numChunks > MaxChunks {
		numChunks = MaxChunks
	}

	size := ceilDiv(fileSize, numChunks)
	if size < MinChunkSize {
		size = MinChunkSize
	}
	return int(size)
}

// Count returns how many ranges Split produces for fileSize bytes cut at
// chunkSize. Empty content still produces one (empty) range.
func Count(fileSize uint64, chunkSize int) int {
	if chunkSize < 1 {
		return 0
	}
	if fileSize == 0 {
		return 1
	}
	return int(ceilDiv(fileSize, uint64(chunkSize)))
}

// Split cuts content into successive ranges of chunkSize bytes; the last one
// may be shorter. The ranges alias content, nothing is copied.
// Empty content yields exactly one empty range so every asset has at least
// one chunk.
func Split(content []byte, chunkSize int) ([][]byte, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", common.ErrMalformedInput, chunkSize)
	}

	if len(content) == 0 {
		return [][]byte{content[:0:0]}, nil
	}

	ranges := make([][]byte, 0, Count(uint64(len(content)), chunkSize))
	for start := 0; start < len(content); start += chunkSize {
		end := min(start+chunkSize, len(content))
		ranges = append(ranges, content[start:end:end])
	}
	return ranges, nil
}
