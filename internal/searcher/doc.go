// Package searcher answers queries against a committed index: free-text
// search by embedding the query, and similar-file search by querying with
// the centroid of a file's stored vectors. Hits are merged per file, ranked
// deterministically, and decorated with context lines from the working tree.
package searcher
