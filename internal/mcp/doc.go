// Package mcp exposes the index and query engine as Model Context Protocol
// tools over stdio. A server is bound to a single initialized workspace and
// registers four tools: index_workspace, search_code, find_similar, and
// get_status.
package mcp
