package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/qsearch/qsearch/internal/indexer"
)

var (
	flagFull    bool
	flagQuiet   bool
	flagWorkers int
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or update the semantic index",
	Long: `Index scans the workspace, chunks changed files, embeds them, and commits
the results to the vector store. Runs are incremental: unchanged files are
skipped, deleted files are purged. Pass --full to discard the existing
index and rebuild from scratch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := indexer.ModeIncremental
		if flagFull {
			mode = indexer.ModeFull
		}
		return runIndexMode(cmd, mode)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Incrementally update the index (alias for 'index')",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndexMode(cmd, indexer.ModeIncremental)
	},
}

func init() {
	indexCmd.Flags().BoolVar(&flagFull, "full", false, "rebuild the index from scratch")
	indexCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "disable progress output")
	indexCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel workers (default: from config)")
	updateCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "disable progress output")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(updateCmd)
}

func runIndexMode(cmd *cobra.Command, mode indexer.Mode) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	idx := indexer.New(e.root, e.cfg, e.emb, e.store, e.logger)

	progress := newProgressRenderer(flagQuiet)
	defer progress.finish()

	if !flagQuiet {
		fmt.Printf("Indexing %s (%s)...\n", e.root, mode)
	}

	report, err := idx.Run(cmd.Context(), indexer.Options{
		Mode:     mode,
		Workers:  flagWorkers,
		Progress: progress.handle,
	})
	if err != nil {
		return err
	}
	progress.finish()

	if !flagQuiet {
		printReport(report)
	}
	return nil
}

func printReport(r *indexer.Report) {
	fmt.Printf("\nDone in %s\n", r.Duration.Round(time.Millisecond))
	fmt.Printf("  Files:  %d scanned, %d indexed, %d unchanged, %d removed, %d failed\n",
		r.FilesScanned, r.FilesIndexed, r.FilesUnchanged, r.FilesRemoved, r.FilesFailed)
	fmt.Printf("  Chunks: %d created, %d deleted\n", r.ChunksCreated, r.ChunksDeleted)

	for _, f := range r.Failed {
		fmt.Printf("  FAIL %s\n", f)
	}
}
