// Package scanner produces the canonical candidate file set for an index
// run: it walks the workspace root, honors gitignore-style rules and the
// config's extension and size filters, sniffs out binary files, and
// fingerprints everything it admits.
//
// Exclusions are reported with a reason rather than silently dropped, so the
// status reporter and the run report can account for every file seen on
// disk. The scanner never mutates anything.
package scanner
