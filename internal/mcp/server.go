package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/qsearch/qsearch/internal/config"
	"github.com/qsearch/qsearch/internal/embedder"
	"github.com/qsearch/qsearch/internal/indexer"
	"github.com/qsearch/qsearch/internal/searcher"
	"github.com/qsearch/qsearch/internal/store"
	"github.com/qsearch/qsearch/internal/workspace"
)

const (
	// ServerName is the MCP server name
	ServerName = "qsearch"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server exposes one workspace's index over MCP stdio.
type Server struct {
	mcp      *server.MCPServer
	root     string
	cfg      *config.Config
	store    store.VectorStore
	embedder embedder.Embedder
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	logger   *zap.Logger
}

// NewServer wires a server for the workspace containing start. The workspace
// must already be initialized.
func NewServer(start string, logger *zap.Logger) (*Server, error) {
	root, err := workspace.Find(start)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(workspace.ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	st, err := store.Open(cfg, workspace.Dir(root))
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	emb, err := embedder.New(cfg)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		root:     root,
		cfg:      cfg,
		store:    st,
		embedder: emb,
		indexer:  indexer.New(root, cfg, emb, st, logger),
		searcher: searcher.New(root, cfg, emb, st, logger),
		logger:   logger,
	}
	s.registerTools()
	return s, nil
}

// Serve runs the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer s.close()
	return server.ServeStdio(s.mcp)
}

func (s *Server) close() {
	if err := s.embedder.Close(); err != nil {
		s.logger.Warn("closing embedder", zap.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("closing store", zap.Error(err))
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexWorkspaceTool(), s.handleIndexWorkspace)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(findSimilarTool(), s.handleFindSimilar)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
