// Package models defines the records that flow through the chunking
// pipeline: the Asset with its Metadata, the Chunk records derived from it
// and the Manifest describing a published asset.
package models

import (
	"math"
	"slices"
)

// DefaultVersion is the metadata version assigned when none is given.
const DefaultVersion = "1.0.0"

// Metadata describes an asset's content. ContentType, Tags and Version are
// opaque labels carried for downstream consumers.
type Metadata struct {
	// ContentType is a free-form content label.
	ContentType string
	// Tags are kept in the given order, duplicates included.
	Tags []string
	// Version defaults to DefaultVersion.
	Version string
	// ChunkCount is zero until the asset has been chunked.
	ChunkCount int
	// FileSize is the byte length of the content at creation time.
	FileSize uint64
	// FileType identifies the original content type and is copied onto
	// every chunk.
	FileType string
}

// NewMetadata builds a Metadata record with ChunkCount zero.
func NewMetadata(contentType string, tags []string, version string, fileSize uint64, fileType string) Metadata {
	if version == "" {
		version = DefaultVersion
	}
	return Metadata{
		ContentType: contentType,
		Tags:        slices.Clone(tags),
		Version:     version,
		FileSize:    fileSize,
		FileType:    fileType,
	}
}

// AssetParams carries the caller-supplied fields of a new Asset.
type AssetParams struct {
	Content     []byte
	ContentType string
	Tags        []string
	Version     string
	IsPremium   bool
	PriceUSD    float64
	CreatorID   []byte
	FileType    string
}

// Asset is an intellectual-property asset: the plaintext content, its
// metadata and commercial fields. The premium flag, price and creator id
// are opaque to the pipeline.
//
// Metadata.FileSize is set from len(Content) once, at construction. If the
// caller later mutates the slice returned by Content, keeping FileSize in
// step is the caller's responsibility.
type Asset struct {
	content   []byte
	metadata  Metadata
	isPremium bool
	price     uint64
	creatorID []byte
}

// NewAsset builds an Asset. The price is derived from p.PriceUSD with
// PriceFromUSD.
func NewAsset(p AssetParams) *Asset {
	return &Asset{
		content:   p.Content,
		metadata:  NewMetadata(p.ContentType, p.Tags, p.Version, uint64(len(p.Content)), p.FileType),
		isPremium: p.IsPremium,
		price:     PriceFromUSD(p.PriceUSD),
		creatorID: p.CreatorID,
	}
}

// RestoreAsset rebuilds an Asset from previously stored fields without
// re-deriving anything.
func RestoreAsset(content []byte, md Metadata, isPremium bool, price uint64, creatorID []byte) *Asset {
	return &Asset{
		content:   content,
		metadata:  md,
		isPremium: isPremium,
		price:     price,
		creatorID: creatorID,
	}
}

func (a *Asset) Content() []byte     { return a.content }
func (a *Asset) Metadata() Metadata  { return a.metadata }
func (a *Asset) IsPremium() bool     { return a.isPremium }
func (a *Asset) Price() uint64       { return a.price }
func (a *Asset) CreatorID() []byte   { return a.creatorID }
func (a *Asset) FileSize() uint64    { return a.metadata.FileSize }
func (a *Asset) FileType() string    { return a.metadata.FileType }
func (a *Asset) ContentType() string { return a.metadata.ContentType }
func (a *Asset) Tags() []string      { return a.metadata.Tags }
func (a *Asset) Version() string     { return a.metadata.Version }
func (a *Asset) ChunkCount() int     { return a.metadata.ChunkCount }

// SetChunkCount records how many chunks the asset was split into.
func (a *Asset) SetChunkCount(n int) {
	a.metadata.ChunkCount = n
}

// PriceFromUSD converts a USD amount to integer units by truncating toward
// zero; cents are dropped, so 29.99 becomes 29. NaN and negative amounts
// become 0 and amounts beyond the uint64 range saturate.
func PriceFromUSD(usd float64) uint64 {
	switch {
	case math.IsNaN(usd) || usd <= 0:
		return 0
	case usd >= math.MaxUint64:
		return math.MaxUint64
	default:
		return uint64(usd)
	}
}
