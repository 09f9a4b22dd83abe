// Package cli implements the qsearch command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/qsearch/qsearch/internal/config"
	"github.com/qsearch/qsearch/internal/embedder"
	"github.com/qsearch/qsearch/internal/store"
	"github.com/qsearch/qsearch/internal/workspace"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "qsearch",
	Short: "Local semantic code search",
	Long: `qsearch maintains an incremental semantic index of a source tree and
answers natural language queries against it. The index lives in a .qsearch
directory at the workspace root, next to your code, like .git.`,
	SilenceUsage: true,
}

// Execute runs the command tree. It is called once from main.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging to stderr")
}

// newLogger builds the CLI logger. Output goes to stderr so stdout stays
// clean for results (and for the MCP protocol).
func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if flagVerbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// env bundles everything an index-touching command needs: the resolved
// workspace, its config, and open store and embedder handles.
type env struct {
	root   string
	cfg    *config.Config
	store  store.VectorStore
	emb    embedder.Embedder
	logger *zap.Logger
}

// openEnv resolves the workspace containing the current directory and opens
// its backends. Callers must close the returned env.
func openEnv() (*env, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := workspace.Find(wd)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'qsearch init' first)", err)
	}

	cfg, err := config.Load(workspace.ConfigPath(root))
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg, workspace.Dir(root))
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	emb, err := embedder.New(cfg)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	return &env{
		root:   root,
		cfg:    cfg,
		store:  st,
		emb:    emb,
		logger: newLogger(),
	}, nil
}

func (e *env) close() {
	if err := e.emb.Close(); err != nil {
		e.logger.Warn("closing embedder", zap.Error(err))
	}
	if err := e.store.Close(); err != nil {
		e.logger.Warn("closing store", zap.Error(err))
	}
	_ = e.logger.Sync()
}
