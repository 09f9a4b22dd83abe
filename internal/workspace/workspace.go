// Package workspace locates the .qsearch directory and its well-known paths.
//
// Like .git, the .qsearch directory marks the root of an indexed tree and
// holds everything the index persists: config.json, manifest.json, and the
// vector store.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/qsearch/qsearch/pkg/types"
)

// DirName is the marker directory at the workspace root.
const DirName = ".qsearch"

// Find walks up from start looking for a directory containing DirName and
// returns the workspace root (the directory holding .qsearch, not .qsearch
// itself). Returns types.ErrNotInWorkspace when the filesystem root is
// reached without a match.
func Find(start string) (string, error) {
	current, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}

	for {
		info, err := os.Stat(filepath.Join(current, DirName))
		if err == nil && info.IsDir() {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", types.ErrNotInWorkspace
		}
		current = parent
	}
}

// Init creates the .qsearch directory under root. Returns
// types.ErrAlreadyInitialized when it already exists.
func Init(root string) error {
	dir := Dir(root)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%w: %s", types.ErrAlreadyInitialized, dir)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// Dir returns the .qsearch directory for a workspace root.
func Dir(root string) string {
	return filepath.Join(root, DirName)
}

// ConfigPath returns the config file path for a workspace root.
func ConfigPath(root string) string {
	return filepath.Join(Dir(root), "config.json")
}

// ManifestPath returns the manifest file path for a workspace root.
func ManifestPath(root string) string {
	return filepath.Join(Dir(root), "manifest.json")
}

// StoreDir returns the chromem store directory for a workspace root.
func StoreDir(root string) string {
	return filepath.Join(Dir(root), "store")
}

// StoreDBPath returns the sqlite store file for a workspace root.
func StoreDBPath(root string) string {
	return filepath.Join(Dir(root), "vectors.db")
}
