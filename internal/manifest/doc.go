// Package manifest tracks what the index contains: one record per file with
// its content hash and chunk IDs, plus a snapshot of the settings the index
// was built with. Diffing a fresh scan against the manifest yields the
// minimal work for an incremental run.
package manifest
