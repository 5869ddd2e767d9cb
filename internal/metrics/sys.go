package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// StateHealth describes the local client state on disk.
type StateHealth struct {
	Path     string
	Size     string
	Requests int64
}

// GetStateHealth reports the size of the state file, including its sqlite
// journal files, and how many request metrics it holds.
func (s *Store) GetStateHealth(ctx context.Context, path string) (StateHealth, error) {
	h := StateHealth{Path: path, Size: humanize.Bytes(stateSize(path))}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM request_metrics`).Scan(&h.Requests); err != nil {
		return h, fmt.Errorf("failed to count request metrics: %w", err)
	}
	return h, nil
}

func stateSize(path string) uint64 {
	var size int64
	matches, _ := filepath.Glob(path + "*")
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			size += info.Size()
		}
	}
	return uint64(size)
}
