package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/qsearch/qsearch/internal/indexer"
	"github.com/qsearch/qsearch/internal/searcher"
	"github.com/qsearch/qsearch/internal/status"
	"github.com/qsearch/qsearch/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeNotWorkspace       = -32001 // Directory is not an initialized workspace
	ErrorCodeIndexingInProgress = -32002 // Another indexing run is already active
	ErrorCodeNotIndexed         = -32003 // File or workspace not indexed
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// handleIndexWorkspace handles the index_workspace tool invocation
func (s *Server) handleIndexWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	mode := indexer.ModeIncremental
	if getBoolDefault(args, "full", false) {
		mode = indexer.ModeFull
	}

	report, err := s.indexer.Run(ctx, indexer.Options{Mode: mode})
	if err != nil {
		switch {
		case errors.Is(err, types.ErrIndexInProgress):
			return nil, newMCPError(ErrorCodeIndexingInProgress, "an indexing run is already in progress", nil)
		case errors.Is(err, types.ErrConfigMismatch):
			return nil, newMCPError(ErrorCodeInvalidParams, "index was built with a different configuration", map[string]interface{}{
				"reason": err.Error(),
				"hint":   "call index_workspace with full=true",
			})
		default:
			return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	response := map[string]interface{}{
		"mode":            report.Mode.String(),
		"files_scanned":   report.FilesScanned,
		"files_indexed":   report.FilesIndexed,
		"files_removed":   report.FilesRemoved,
		"files_unchanged": report.FilesUnchanged,
		"files_failed":    report.FilesFailed,
		"chunks_created":  report.ChunksCreated,
		"chunks_deleted":  report.ChunksDeleted,
		"duration_ms":     report.Duration.Milliseconds(),
	}

	if len(report.Failed) > 0 {
		// Include first few failures
		failures := report.Failed
		if len(failures) > 5 {
			response["failure_count"] = len(failures)
			failures = failures[:5]
		}
		msgs := make([]string, len(failures))
		for i, f := range failures {
			msgs[i] = f.String()
		}
		response["failures"] = msgs
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	opts, err := queryOptions(args)
	if err != nil {
		return nil, err
	}

	results, err := s.searcher.Search(ctx, query, opts)
	if err != nil {
		if errors.Is(err, searcher.ErrEmptyQuery) {
			return nil, newMCPError(ErrorCodeEmptyQuery, "query cannot be empty", nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(resultsResponse(query, results))), nil
}

// handleFindSimilar handles the find_similar tool invocation
func (s *Server) handleFindSimilar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	opts, err := queryOptions(args)
	if err != nil {
		return nil, err
	}

	results, err := s.searcher.Similar(ctx, path, opts)
	if err != nil {
		if errors.Is(err, types.ErrNotIndexed) {
			return nil, newMCPError(ErrorCodeNotIndexed, "file is not in the index", map[string]interface{}{
				"path": path,
				"hint": "paths must be workspace-relative; run index_workspace if the file is new",
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "similarity search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(resultsResponse(path, results))), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := status.Report(ctx, s.root, s.cfg, s.store, s.logger)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed": st.FileCount > 0,
		"root":    s.root,
		"configuration": map[string]interface{}{
			"model":     st.Model,
			"dimension": st.Dimension,
			"store":     st.Store,
		},
		"statistics": map[string]interface{}{
			"files_count":    st.FileCount,
			"chunks_count":   st.ChunkCount,
			"vectors_count":  st.VectorCount,
			"stale_files":    st.StaleFiles,
			"excluded_files": st.ExcludedFiles,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// arguments extracts the argument map, tolerating tools called with none.
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

// queryOptions parses the limit and context_lines parameters shared by the
// search tools.
func queryOptions(args map[string]interface{}) (searcher.QueryOptions, error) {
	limit := getIntDefault(args, "limit", 0)
	if limit < 0 || limit > 100 {
		return searcher.QueryOptions{}, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	contextLines := getIntDefault(args, "context_lines", -1)
	if contextLines > 50 {
		return searcher.QueryOptions{}, newMCPError(ErrorCodeInvalidParams, "context_lines must be at most 50", map[string]interface{}{
			"param": "context_lines",
			"value": contextLines,
		})
	}

	return searcher.QueryOptions{Limit: limit, ContextLines: contextLines}, nil
}

// resultsResponse formats ranked results for tool output.
func resultsResponse(query string, results []types.SearchResult) map[string]interface{} {
	items := make([]map[string]interface{}, len(results))
	for i, r := range results {
		item := map[string]interface{}{
			"path":       r.Path,
			"score":      fmt.Sprintf("%.4f", r.Score),
			"kind":       string(r.Kind),
			"start_line": r.Span.StartLine,
			"end_line":   r.Span.EndLine,
		}
		if len(r.Lines) > 0 {
			lines := make([]map[string]interface{}, len(r.Lines))
			for j, l := range r.Lines {
				lines[j] = map[string]interface{}{
					"number": l.Number,
					"text":   l.Text,
					"match":  l.Match,
				}
			}
			item["lines"] = lines
		}
		items[i] = item
	}

	return map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": items,
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}
