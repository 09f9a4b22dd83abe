// Package indexer reconciles three views of a workspace: the filesystem,
// the manifest, and the vector store.
//
// A run scans the tree, diffs content hashes against the manifest, and then
// processes only the changed files. Extraction and embedding fan out across
// a worker pool; all writes funnel through a single committer goroutine that
// applies each file's store changes and then checkpoints the manifest
// atomically. A crash therefore loses at most the file in flight, and the
// next run picks it up again because its hash still differs from the
// manifest.
package indexer
