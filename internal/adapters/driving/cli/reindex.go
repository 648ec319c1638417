package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector index from stored embeddings",
	Long: `Rebuilds the persisted vector index from every embedded chunk in the
database. Useful after restoring the database from a backup or when the
index files were deleted. No embeddings are recomputed.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	count, err := ingestor.RebuildIndex(context.Background())
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	if count == 0 {
		cmd.Println("No embedded chunks; index removed.")
		return nil
	}
	cmd.Printf("Indexed %d chunks.\n", count)
	return nil
}
