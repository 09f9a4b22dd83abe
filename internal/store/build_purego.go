//go:build !sqlite_cgo
// +build !sqlite_cgo

package store

// This file is compiled when building without the sqlite_cgo tag. It uses a
// pure Go SQLite implementation so the binary cross-compiles without a C
// toolchain.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
