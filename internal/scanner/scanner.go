package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qsearch/qsearch/internal/config"
	"github.com/qsearch/qsearch/pkg/types"
)

// Exclusion reasons reported for files the scanner rejects.
const (
	ReasonIgnored    = "ignored"
	ReasonExtension  = "extension"
	ReasonTooLarge   = "too large"
	ReasonUnreadable = "unreadable"
	ReasonBinary     = "binary"
)

// binarySniffLen is how many leading bytes are checked for NUL to detect
// binary content.
const binarySniffLen = 8000

// defaultTextExtensions gates indexing when the config has no include list.
var defaultTextExtensions = map[string]bool{
	// Plain text
	"txt": true, "md": true, "rst": true, "org": true, "adoc": true,
	// Code
	"rs": true, "py": true, "js": true, "ts": true, "jsx": true, "tsx": true,
	"go": true, "java": true, "c": true, "cpp": true, "h": true, "hpp": true,
	"cs": true, "rb": true, "php": true, "swift": true, "kt": true, "scala": true,
	"hs": true, "ml": true, "ex": true, "exs": true, "erl": true, "clj": true,
	"cljs": true, "lisp": true, "scm": true, "lua": true, "r": true, "jl": true,
	"nim": true, "zig": true, "v": true, "d": true,
	// Web
	"html": true, "htm": true, "css": true, "scss": true, "sass": true,
	"less": true, "vue": true, "svelte": true,
	// Config
	"json": true, "yaml": true, "yml": true, "toml": true, "xml": true,
	"ini": true, "cfg": true, "conf": true,
	// Shell
	"sh": true, "bash": true, "zsh": true, "fish": true, "ps1": true,
	"bat": true, "cmd": true,
	// Data
	"csv": true, "sql": true,
	// Docs
	"tex": true, "bib": true,
}

// FileEntry is one candidate file produced by a scan.
type FileEntry struct {
	// Path is relative to the workspace root, slash-separated.
	Path string

	AbsPath string
	Size    int64
	ModTime time.Time

	// Hash is the hex SHA-256 of the file's raw bytes.
	Hash string
}

// Excluded records a file the scanner rejected, and why. Excluded files are
// reported, never silently dropped, and never reach the manifest.
type Excluded struct {
	Path   string
	Reason string
}

// Result is the canonical file set of one scan: entries sorted by path plus
// the exclusion report.
type Result struct {
	Files    []FileEntry
	Excluded []Excluded
}

// HashByPath returns the path→hash map the change detector consumes.
func (r *Result) HashByPath() map[string]string {
	m := make(map[string]string, len(r.Files))
	for _, f := range r.Files {
		m[f.Path] = f.Hash
	}
	return m
}

// Scanner walks a workspace root honoring ignore rules, extension filters,
// and the size limit, fingerprinting every admitted file.
type Scanner struct {
	root   string
	cfg    *config.Config
	ignore *IgnoreMatcher
	logger *zap.Logger
}

// New creates a scanner for the given workspace root.
func New(root string, cfg *config.Config, logger *zap.Logger) (*Scanner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ignore, err := NewIgnoreMatcher(root, cfg.IgnorePatterns)
	if err != nil {
		return nil, fmt.Errorf("load ignore rules: %w", err)
	}
	return &Scanner{root: root, cfg: cfg, ignore: ignore, logger: logger}, nil
}

// Scan walks the tree and returns the canonical candidate set. Unreadable
// files are excluded with a reason, not fatal.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	result := &Result{}

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directory: report and move on.
			if d != nil && d.IsDir() {
				result.Excluded = append(result.Excluded, Excluded{Path: s.rel(path), Reason: ReasonUnreadable})
				return fs.SkipDir
			}
			result.Excluded = append(result.Excluded, Excluded{Path: s.rel(path), Reason: ReasonUnreadable})
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel := s.rel(path)

		if d.IsDir() {
			if path == s.root {
				return nil
			}
			// Hidden directories (including .qsearch and .git) are never
			// indexed.
			if strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			if s.ignore.Match(rel) {
				return fs.SkipDir
			}
			return nil
		}

		// Hidden files.
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		if s.ignore.Match(rel) {
			result.Excluded = append(result.Excluded, Excluded{Path: rel, Reason: ReasonIgnored})
			return nil
		}

		if !s.admitExtension(rel) {
			result.Excluded = append(result.Excluded, Excluded{Path: rel, Reason: ReasonExtension})
			return nil
		}

		info, err := d.Info()
		if err != nil {
			result.Excluded = append(result.Excluded, Excluded{Path: rel, Reason: ReasonUnreadable})
			return nil
		}
		if info.Size() > s.cfg.MaxFileSize {
			result.Excluded = append(result.Excluded, Excluded{Path: rel, Reason: ReasonTooLarge})
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			result.Excluded = append(result.Excluded, Excluded{Path: rel, Reason: ReasonUnreadable})
			return nil
		}
		if isBinary(content) {
			result.Excluded = append(result.Excluded, Excluded{Path: rel, Reason: ReasonBinary})
			return nil
		}

		result.Files = append(result.Files, FileEntry{
			Path:    rel,
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Hash:    types.HashBytes(content),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.root, err)
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})

	s.logger.Debug("scan complete",
		zap.Int("files", len(result.Files)),
		zap.Int("excluded", len(result.Excluded)),
	)
	return result, nil
}

// rel converts an absolute walk path to the workspace-relative slash form.
func (s *Scanner) rel(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

// admitExtension applies exclude-first, then the include allowlist, then the
// default text-extension gate.
func (s *Scanner) admitExtension(rel string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(rel), "."))

	for _, e := range s.cfg.ExcludeExtensions {
		if strings.EqualFold(e, ext) {
			return false
		}
	}
	if len(s.cfg.IncludeExtensions) > 0 {
		for _, e := range s.cfg.IncludeExtensions {
			if strings.EqualFold(e, ext) {
				return true
			}
		}
		return false
	}
	return defaultTextExtensions[ext]
}

// isBinary sniffs for a NUL byte in the leading bytes.
func isBinary(content []byte) bool {
	n := len(content)
	if n > binarySniffLen {
		n = binarySniffLen
	}
	return bytes.IndexByte(content[:n], 0) >= 0
}
