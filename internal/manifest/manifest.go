package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/qsearch/qsearch/internal/config"
)

// FileRecord is the committed index state for one file.
type FileRecord struct {
	Path      string    `json:"path"`
	Hash      string    `json:"hash"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
	ChunkIDs  []string  `json:"chunk_ids"`
	IndexedAt time.Time `json:"indexed_at"`
}

// ConfigSnapshot records the settings the index was built with. A change in
// any of these invalidates stored vectors or chunk boundaries.
type ConfigSnapshot struct {
	Model        string   `json:"model"`
	Dimension    int      `json:"dimension"`
	ChunkSize    int      `json:"chunk_size"`
	ChunkOverlap int      `json:"chunk_overlap"`
	Include      []string `json:"include_extensions,omitempty"`
	Exclude      []string `json:"exclude_extensions,omitempty"`
}

// SnapshotFromConfig captures the index-relevant subset of cfg.
func SnapshotFromConfig(cfg *config.Config) ConfigSnapshot {
	return ConfigSnapshot{
		Model:        cfg.Model,
		Dimension:    cfg.Dimension,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		Include:      cfg.IncludeExtensions,
		Exclude:      cfg.ExcludeExtensions,
	}
}

// Compatible reports whether an index built under s can be updated
// incrementally under other. Vector shape must match exactly.
func (s ConfigSnapshot) Compatible(other ConfigSnapshot) bool {
	return s.Model == other.Model && s.Dimension == other.Dimension &&
		s.ChunkSize == other.ChunkSize && s.ChunkOverlap == other.ChunkOverlap
}

// Manifest is the durable record of what the index contains. It is rewritten
// atomically after each file commit, so a crash leaves it describing exactly
// the files whose vectors reached the store.
type Manifest struct {
	Version int                    `json:"version"`
	Config  ConfigSnapshot         `json:"config"`
	Files   map[string]*FileRecord `json:"files"`
}

const currentVersion = 1

// NewManifest creates an empty manifest snapshotting cfg.
func NewManifest(cfg *config.Config) *Manifest {
	return &Manifest{
		Version: currentVersion,
		Config:  SnapshotFromConfig(cfg),
		Files:   make(map[string]*FileRecord),
	}
}

// Load reads the manifest at path. A missing file yields an empty manifest
// snapshotting cfg; a corrupt file is an error, since silently rebuilding
// would hide vector store orphans.
func Load(path string, cfg *config.Config) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewManifest(cfg), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if m.Files == nil {
		m.Files = make(map[string]*FileRecord)
	}
	return &m, nil
}

// Save writes the manifest atomically: marshal to a temp file in the same
// directory, fsync, then rename over the target.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("syncing temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}

// ChunkCount returns the total number of chunks across all files.
func (m *Manifest) ChunkCount() int {
	n := 0
	for _, rec := range m.Files {
		n += len(rec.ChunkIDs)
	}
	return n
}

// AllChunkIDs returns every chunk ID the manifest knows about.
func (m *Manifest) AllChunkIDs() []string {
	ids := make([]string, 0, m.ChunkCount())
	for _, rec := range m.Files {
		ids = append(ids, rec.ChunkIDs...)
	}
	return ids
}
