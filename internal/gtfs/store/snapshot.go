package store

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/tfitracker-data/internal/common/logger"
	"github.com/tfitracker-data/pkg/gtfs/models"
)

// Snapshot persists the whole graph to one file, gob-encoded and
// zstd-compressed. The format is opaque: the only contract is that Load
// returns a graph equal to the one saved.
type Snapshot struct {
	path string
	log  logger.Logger
}

func NewSnapshot(path string, log logger.Logger) (*Snapshot, error) {
	if path == "" {
		return nil, errors.New("empty snapshot path")
	}
	return &Snapshot{path: path, log: log}, nil
}

// Save writes the graph. The write goes to a temp file first and is renamed
// into place so a crash never leaves a truncated snapshot.
func (p *Snapshot) Save(data *models.Data) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	tempFile, err := os.CreateTemp(dir, "snapshot_*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	zw, err := zstd.NewWriter(tempFile)
	if err != nil {
		tempFile.Close()
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if err := gob.NewEncoder(zw).Encode(data); err != nil {
		zw.Close()
		tempFile.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		tempFile.Close()
		return fmt.Errorf("flushing snapshot: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, p.path); err != nil {
		return fmt.Errorf("moving snapshot into place: %w", err)
	}
	p.log.Info("Saved store snapshot", "path", p.path)
	return nil
}

// Load reads the graph back. A missing file yields a fresh empty graph.
func (p *Snapshot) Load() (*models.Data, error) {
	f, err := os.Open(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.log.Info("No snapshot on disk, starting empty", "path", p.path)
			return models.NewData(), nil
		}
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer zr.Close()

	data := models.NewData()
	if err := gob.NewDecoder(zr).Decode(data); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	p.log.Info("Loaded store snapshot", "path", p.path)
	return data, nil
}

// Restore replaces the store's graph with the snapshot contents.
func (s *Store) Restore(data *models.Data) {
	s.data = data
	s.changed = false
	s.InvalidateCaches()
}
