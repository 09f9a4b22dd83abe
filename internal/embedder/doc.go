// Package embedder turns text into vectors.
//
// An Embedder wraps one provider (Ollama by default, OpenAI, or a
// deterministic mock) behind a uniform batch interface with LRU caching by
// content hash. The Dispatcher sits above it and handles the operational
// concerns of an indexing run: batch sizing, per-batch timeouts, retry with
// exponential backoff, and dimension verification.
package embedder
