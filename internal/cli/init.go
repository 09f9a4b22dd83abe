package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qsearch/qsearch/internal/config"
	"github.com/qsearch/qsearch/internal/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a workspace for indexing",
	Long: `Init creates the .qsearch directory at the given path (default: current
directory) and writes a default config.json. Edit the config before the
first index run to change the embedding model, chunk sizing, or backends.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) == 1 {
			target = args[0]
		}
		root, err := filepath.Abs(target)
		if err != nil {
			return err
		}

		if err := workspace.Init(root); err != nil {
			return err
		}
		if err := config.Default().Save(workspace.ConfigPath(root)); err != nil {
			return err
		}

		fmt.Printf("Initialized empty index in %s\n", workspace.Dir(root))
		fmt.Println("Run 'qsearch index' to build it.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
