package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs", "ls"},
	Short:   "List registered documents",
	Args:    cobra.NoArgs,
	RunE:    runDocuments,
}

var chunkCmd = &cobra.Command{
	Use:   "chunk [doc-id] [seq]",
	Short: "Show one chunk of a document",
	Args:  cobra.ExactArgs(2),
	RunE:  runChunk,
}

func init() {
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "output documents as JSON")
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(chunkCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	infos, err := registrar.List(context.Background())
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if documentsJSON {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(infos) == 0 {
		cmd.Println("No documents. Add some with: docfold upload <files...>")
		return nil
	}

	for _, info := range infos {
		cmd.Printf("%s  %-30s  %-16s  %d chunks  %d bytes\n",
			info.ID, info.Filename, info.Status, info.ChunkCount, info.SizeBytes)
	}
	return nil
}

func runChunk(cmd *cobra.Command, args []string) error {
	seq, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("seq must be an integer: %w", err)
	}

	chunk, err := registrar.Chunk(context.Background(), args[0], seq)
	if err != nil {
		return fmt.Errorf("find chunk: %w", err)
	}

	cmd.Printf("Chunk:    %s\n", chunk.ID)
	cmd.Printf("Document: %s\n", chunk.DocumentID)
	cmd.Printf("Seq:      %d\n", chunk.Seq)
	if chunk.Page != nil {
		cmd.Printf("Page:     %d\n", *chunk.Page)
	}
	cmd.Printf("Embedded: %t\n", chunk.Embedding != nil)
	cmd.Println()
	cmd.Println(chunk.Text)
	return nil
}
