package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qsearch/qsearch/internal/searcher"
)

var (
	flagLimit   int
	flagContext int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index with a natural language query",
	Long: `Search embeds the query and returns the closest indexed chunks, ranked by
cosine similarity. Hits from the same file whose context windows touch are
merged into a single result.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		query := strings.Join(args, " ")
		s := searcher.New(e.root, e.cfg, e.emb, e.store, e.logger)

		results, err := s.Search(cmd.Context(), query, searcher.QueryOptions{
			Limit:        flagLimit,
			ContextLines: flagContext,
		})
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Printf("No results for %q. Is the index built? Try 'qsearch index'.\n", query)
			return nil
		}
		renderResults(os.Stdout, results)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "maximum results (default 10)")
	searchCmd.Flags().IntVarP(&flagContext, "context", "C", -1, "context lines around each match (default 2)")
	rootCmd.AddCommand(searchCmd)
}
