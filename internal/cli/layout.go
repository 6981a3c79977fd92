package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/ipchunk/internal/filex"
	"github.com/dmitrijs2005/ipchunk/internal/models"
	"github.com/dmitrijs2005/ipchunk/internal/records"
)

const (
	chunksDirName    = "chunks"
	manifestCBORName = "manifest.cbor"
	manifestJSONName = "manifest.json"
	chunkExt         = ".cbor"
)

// writeDir stores a manifest and its chunks in dir.
func writeDir(dir string, m *models.Manifest, chunks []models.Chunk) error {
	chunksDir, err := filex.EnsureSubdDir(dir, chunksDirName)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		b, err := records.EncodeChunk(c)
		if err != nil {
			return fmt.Errorf("encoding chunk %d: %w", c.Index, err)
		}
		path := filepath.Join(chunksDir, fmt.Sprintf("%d%s", c.Index, chunkExt))
		if err := filex.WriteFileAtomic(path, b, 0o600); err != nil {
			return err
		}
	}

	b, err := records.EncodeManifest(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := filex.WriteFileAtomic(filepath.Join(dir, manifestCBORName), b, 0o600); err != nil {
		return err
	}

	j, err := records.ManifestJSON(m)
	if err != nil {
		return fmt.Errorf("encoding manifest json: %w", err)
	}
	return filex.WriteFileAtomic(filepath.Join(dir, manifestJSONName), j, 0o644)
}

// readDir loads the manifest and every chunk file found in dir. Chunks are
// returned in file name order, not index order.
func readDir(dir string) (*models.Manifest, []models.Chunk, error) {
	b, err := os.ReadFile(filepath.Join(dir, manifestCBORName))
	if err != nil {
		return nil, nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := records.DecodeManifest(b)
	if err != nil {
		return nil, nil, err
	}

	files, err := filex.ListFiles(filepath.Join(dir, chunksDirName), chunkExt)
	if err != nil {
		return nil, nil, fmt.Errorf("listing chunks: %w", err)
	}

	chunks := make([]models.Chunk, 0, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, nil, err
		}
		c, err := records.DecodeChunk(b)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
		chunks = append(chunks, c)
	}

	return m, chunks, nil
}
