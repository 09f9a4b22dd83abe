package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qsearch/qsearch/internal/searcher"
)

var similarCmd = &cobra.Command{
	Use:   "similar <path>",
	Short: "Find files similar to an indexed file",
	Long: `Similar averages the stored vectors of the given file's chunks and queries
the index with the result. The file must already be indexed; its own chunks
are excluded from the output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		rel, err := workspaceRelative(e.root, args[0])
		if err != nil {
			return err
		}

		s := searcher.New(e.root, e.cfg, e.emb, e.store, e.logger)
		results, err := s.Similar(cmd.Context(), rel, searcher.QueryOptions{
			Limit:        flagLimit,
			ContextLines: flagContext,
		})
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Printf("Nothing similar to %s found.\n", rel)
			return nil
		}
		renderResults(os.Stdout, results)
		return nil
	},
}

// workspaceRelative converts a user-supplied path (absolute, or relative to
// the current directory) into the slash-separated workspace-relative form
// used as the index key.
func workspaceRelative(root, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%s is outside the workspace %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}

func init() {
	similarCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "maximum results (default 10)")
	similarCmd.Flags().IntVarP(&flagContext, "context", "C", -1, "context lines around each match (default 2)")
	rootCmd.AddCommand(similarCmd)
}
