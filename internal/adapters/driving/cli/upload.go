package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Register documents for ingestion",
	Long: `Copies each file into the uploads directory and records it as a
PENDING document. Files whose content was uploaded before are reported
as duplicates and not stored again. Run "docfold ingest" afterwards to
chunk and embed the new documents.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var failed int
	for _, path := range args {
		doc, err := registrar.Register(ctx, path)
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
			continue
		}
		if doc.Status == domain.StatusDuplicate {
			cmd.Printf("  %s: duplicate of %s\n", doc.Filename, doc.ID)
			continue
		}
		cmd.Printf("  %s: registered as %s (%d bytes)\n", doc.Filename, doc.ID, doc.SizeBytes)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}
