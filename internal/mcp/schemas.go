package mcp

import "github.com/mark3labs/mcp-go/mcp"

// indexWorkspaceTool defines the index_workspace tool schema
func indexWorkspaceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_workspace",
		Description: "Index the workspace for semantic search. Incremental by default: only added, modified, and removed files are reprocessed. Pass full=true to rebuild the index from scratch.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"full": map[string]any{
					"type":        "boolean",
					"description": "Discard the existing index and rebuild everything (default: false)",
				},
			},
		},
	}
}

// searchCodeTool defines the search_code tool schema
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search indexed code semantically using a natural language query. Returns ranked file locations with surrounding context lines.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Natural language description of the code to find",
				},
				"limit": map[string]any{
					"type":        "number",
					"description": "Maximum number of results (default: 10)",
				},
				"context_lines": map[string]any{
					"type":        "number",
					"description": "Context lines to include around each match (default: 2)",
				},
			},
			Required: []string{"query"},
		},
	}
}

// findSimilarTool defines the find_similar tool schema
func findSimilarTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_similar",
		Description: "Find code similar to an already indexed file. The path must be relative to the workspace root.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Workspace-relative path of the reference file",
				},
				"limit": map[string]any{
					"type":        "number",
					"description": "Maximum number of results (default: 10)",
				},
				"context_lines": map[string]any{
					"type":        "number",
					"description": "Context lines to include around each match (default: 2)",
				},
			},
			Required: []string{"path"},
		},
	}
}

// getStatusTool defines the get_status tool schema
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index health: configured model and store, indexed file and chunk counts, and how many files are stale relative to the filesystem.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}
}
