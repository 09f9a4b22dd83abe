// Package store persists chunk vectors and answers nearest-neighbor queries.
//
// Three backends implement the same interface: chromem-go (default, gob
// persistence, pure Go), SQLite (single file, vectors as float32 blobs,
// cosine computed in Go), and an in-memory store for tests. The SQLite
// driver is selected at build time: modernc.org/sqlite by default,
// github.com/mattn/go-sqlite3 with the sqlite_cgo tag.
package store
