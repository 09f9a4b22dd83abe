package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qsearch/qsearch/internal/config"
)

// Backend names accepted in config.
const (
	BackendChromem = "chromem"
	BackendSQLite  = "sqlite"
	BackendMemory  = "memory"
)

// Open creates the configured vector store under the workspace dot
// directory.
func Open(cfg *config.Config, dotDir string) (VectorStore, error) {
	switch strings.ToLower(cfg.Store) {
	case BackendChromem, "":
		return NewChromemStore(filepath.Join(dotDir, "store"))
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dotDir, "vectors.db"))
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Store)
	}
}
