package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// gitignore-style files consulted at the workspace root.
var ignoreFileNames = []string{".gitignore", ".qsearchignore"}

// compiledPattern keeps the source pattern next to its compiled glob for
// error reporting.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// IgnoreMatcher decides whether a relative, slash-separated path is excluded
// by ignore rules. Rules come from the workspace's ignore files plus the
// config's extra patterns.
type IgnoreMatcher struct {
	patterns []compiledPattern
}

// NewIgnoreMatcher parses the root's ignore files and compiles them together
// with the extra config patterns.
func NewIgnoreMatcher(root string, extra []string) (*IgnoreMatcher, error) {
	var lines []string
	for _, name := range ignoreFileNames {
		filePatterns, err := readIgnoreFile(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		lines = append(lines, filePatterns...)
	}
	lines = append(lines, extra...)

	m := &IgnoreMatcher{}
	for _, line := range lines {
		pattern := toGlobPattern(line)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			// A malformed pattern must not take the scanner down.
			continue
		}
		m.patterns = append(m.patterns, compiledPattern{pattern: pattern, glob: g})
	}
	return m, nil
}

// Match reports whether relPath (slash-separated) is ignored. Directory
// patterns like "vendor/" match the directory and everything under it.
func (m *IgnoreMatcher) Match(relPath string) bool {
	for _, p := range m.patterns {
		if p.glob.Match(relPath) {
			return true
		}
	}
	return false
}

// readIgnoreFile returns the raw non-comment lines of one ignore file.
func readIgnoreFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// toGlobPattern converts one gitignore-style line into a glob pattern.
// Comments, blanks, and negations yield "". Negation patterns are not
// supported; they are skipped rather than misapplied.
func toGlobPattern(line string) string {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return ""
	}

	// A leading slash anchors to the root; globs here are root-relative
	// already.
	anchored := strings.HasPrefix(line, "/")
	line = strings.TrimPrefix(line, "/")

	// A trailing slash names a directory: match its whole subtree.
	if strings.HasSuffix(line, "/") {
		line += "**"
	} else if !strings.ContainsAny(line, "*?[") && filepath.Ext(line) == "" {
		// A bare name ("vendor", "node_modules") ignores the directory
		// subtree as well as a plain file of that name.
		line = line + "{,/**}"
	}

	// An unanchored pattern without a slash can match at any depth.
	if !anchored && !strings.Contains(strings.TrimSuffix(line, "{,/**}"), "/") {
		line = "{" + line + ",**/" + line + "}"
	}
	return line
}
