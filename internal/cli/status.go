package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qsearch/qsearch/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index health and staleness",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		st, err := status.Report(cmd.Context(), e.root, e.cfg, e.store, e.logger)
		if err != nil {
			return err
		}

		fmt.Printf("Workspace:  %s\n", e.root)
		fmt.Printf("Model:      %s (%d dimensions)\n", st.Model, st.Dimension)
		fmt.Printf("Store:      %s\n", st.Store)
		fmt.Printf("Files:      %d indexed, %d excluded\n", st.FileCount, st.ExcludedFiles)
		fmt.Printf("Chunks:     %d (%d vectors stored)\n", st.ChunkCount, st.VectorCount)

		if st.StaleFiles > 0 {
			fmt.Printf("Stale:      %d files changed since last run (run 'qsearch index')\n", st.StaleFiles)
		} else if st.FileCount > 0 {
			fmt.Println("Stale:      none, index is up to date")
		} else {
			fmt.Println("Index is empty. Run 'qsearch index' to build it.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
