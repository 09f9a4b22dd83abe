// Package chunker splits file contents into embeddable chunks. Source files
// with a known grammar are cut along definition boundaries reported by the
// parser; other text files are cut into fixed-size overlapping windows.
package chunker
