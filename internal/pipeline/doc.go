// Package pipeline orchestrates the chunking components into the operations
// a host performs on an asset.
//
// Publishing an asset picks a chunk size for its content, seals the content
// into chunks, computes the whole-content hash and describes the result in a
// Manifest. The reverse direction fetches chunks in manifest order,
// verifies each one against its content address, opens them and checks the
// reassembled content against the asset hash.
//
// Where the chunks live is the caller's concern: FetchOrdered only needs a
// ChunkSource that can look a chunk up by its hash.
package pipeline
