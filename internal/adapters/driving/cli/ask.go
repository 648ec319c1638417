package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/services"
)

var (
	askK          int
	askJSON       bool
	askShowChunks bool
)

var (
	answerStyle   = lipgloss.NewStyle().Bold(true)
	citationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	refusalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	scoreStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the ingested documents",
	Long: `Retrieves the chunks most similar to the question and asks the model
to answer using only that evidence. When nothing confident enough is
found, docfold says "I don't know" instead of guessing.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "top", "k", services.DefaultK, "number of chunks to retrieve")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askShowChunks, "show-chunks", false, "print the retrieved chunks and scores")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	answer, err := answerer.Ask(context.Background(), args[0], askK)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if answer.Text == services.InsufficientEvidenceAnswer {
		cmd.Println(refusalStyle.Render(answer.Text))
	} else {
		cmd.Println(answerStyle.Render(answer.Text))
	}

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, c := range answer.Citations {
			tag := fmt.Sprintf("%s#%d", c.Filename, c.Seq)
			if c.Page != nil {
				tag += fmt.Sprintf(" (p. %d)", *c.Page)
			}
			cmd.Printf("  %s\n", citationStyle.Render(fmt.Sprintf("[%d] %s", i+1, tag)))
		}
	}

	if askShowChunks {
		cmd.Println()
		printChunks(cmd, answer.Retrieved)
	}
	return nil
}

func printChunks(cmd *cobra.Command, retrieved []domain.RetrievedChunk) {
	if len(retrieved) == 0 {
		cmd.Println("No chunks retrieved.")
		return
	}
	cmd.Println("Retrieved:")
	for i, ch := range retrieved {
		cmd.Printf("  [%d] %s#%d %s\n", i+1, ch.Filename, ch.Seq,
			scoreStyle.Render(fmt.Sprintf("(%.3f)", ch.Score)))
		cmd.Printf("      %s\n", truncate(ch.Text, 120))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
