// Package types defines the shared data model for qsearch: chunks and their
// spans, content fingerprints, search results, and the error taxonomy of an
// index run.
//
// The same SHA-256 fingerprint (HashBytes) gates both file-level change
// detection and chunk-level ID derivation, so hash equality is treated as
// content equality throughout the pipeline. Chunk IDs are deterministic
// (DeriveChunkID): re-extracting unchanged content reproduces the same ID,
// which is what makes per-file index commits idempotent.
package types
