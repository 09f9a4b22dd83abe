// Package parser extracts semantic definition spans (functions, methods,
// classes, types) from source files using tree-sitter grammars. Spans carry
// both byte and line offsets so downstream chunking can slice the original
// bytes without re-parsing.
package parser
