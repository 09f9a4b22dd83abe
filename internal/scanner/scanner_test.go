package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsearch/qsearch/internal/config"
	"github.com/qsearch/qsearch/pkg/types"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func scan(t *testing.T, root string, cfg *config.Config) *Result {
	t.Helper()
	s, err := New(root, cfg, nil)
	require.NoError(t, err)
	result, err := s.Scan(context.Background())
	require.NoError(t, err)
	return result
}

func excludedPaths(result *Result) map[string]string {
	m := make(map[string]string)
	for _, e := range result.Excluded {
		m[e.Path] = e.Reason
	}
	return m
}

func TestScan_OrderedAndHashed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.go", "package b\n")
	writeFile(t, root, "a.go", "package a\n")
	writeFile(t, root, "sub/c.go", "package c\n")

	result := scan(t, root, config.Default())
	require.Len(t, result.Files, 3)

	assert.Equal(t, "a.go", result.Files[0].Path)
	assert.Equal(t, "b.go", result.Files[1].Path)
	assert.Equal(t, "sub/c.go", result.Files[2].Path)
	assert.Equal(t, types.HashBytes([]byte("package a\n")), result.Files[0].Hash)
}

func TestScan_HiddenAndIgnored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.go", "package keep\n")
	writeFile(t, root, ".hidden/secret.go", "package secret\n")
	writeFile(t, root, ".env", "TOKEN=x\n")
	writeFile(t, root, "vendor/dep.go", "package dep\n")
	writeFile(t, root, "build/out.js", "var x = 1\n")
	writeFile(t, root, ".gitignore", "vendor/\nbuild\n")

	result := scan(t, root, config.Default())

	paths := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"keep.go"}, paths)

	// vendor/ keeps the directory itself walkable, so its files are
	// reported; the bare "build" pattern skips that directory outright.
	reasons := excludedPaths(result)
	assert.Equal(t, ReasonIgnored, reasons["vendor/dep.go"])
	assert.NotContains(t, reasons, "keep.go")
}

func TestScan_ExtensionFilters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "notes.md", "# notes\n")
	writeFile(t, root, "image.xyz", "not text\n")

	// Default gate: unknown extensions are excluded.
	result := scan(t, root, config.Default())
	assert.Len(t, result.Files, 2)
	assert.Equal(t, ReasonExtension, excludedPaths(result)["image.xyz"])

	// Include list is an allowlist.
	cfg := config.Default()
	cfg.IncludeExtensions = []string{"go"}
	result = scan(t, root, cfg)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "main.go", result.Files[0].Path)

	// Exclude wins over include.
	cfg = config.Default()
	cfg.IncludeExtensions = []string{"go", "md"}
	cfg.ExcludeExtensions = []string{"go"}
	result = scan(t, root, cfg)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "notes.md", result.Files[0].Path)
}

func TestScan_SizeLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.txt", "ok\n")
	writeFile(t, root, "big.txt", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n")

	cfg := config.Default()
	cfg.MaxFileSize = 10

	result := scan(t, root, cfg)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "small.txt", result.Files[0].Path)
	assert.Equal(t, ReasonTooLarge, excludedPaths(result)["big.txt"])
}

func TestScan_BinaryDetection(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data.csv", "a,b\x00c\n")
	writeFile(t, root, "real.csv", "a,b,c\n")

	result := scan(t, root, config.Default())
	require.Len(t, result.Files, 1)
	assert.Equal(t, "real.csv", result.Files[0].Path)
	assert.Equal(t, ReasonBinary, excludedPaths(result)["data.csv"])
}

func TestScan_ConfigIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main\n")
	writeFile(t, root, "gen/gen.go", "package gen\n")

	cfg := config.Default()
	cfg.IgnorePatterns = []string{"gen/"}

	result := scan(t, root, cfg)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "src/main.go", result.Files[0].Path)
}

func TestScan_EmptyTree(t *testing.T) {
	result := scan(t, t.TempDir(), config.Default())
	assert.Empty(t, result.Files)
	assert.Empty(t, result.Excluded)
}

func TestHashByPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "one\n")
	writeFile(t, root, "b.txt", "two\n")

	result := scan(t, root, config.Default())
	m := result.HashByPath()
	assert.Len(t, m, 2)
	assert.Equal(t, types.HashBytes([]byte("one\n")), m["a.txt"])
}
