package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/services"
)

// evalQuestion is one entry in a questions file.
type evalQuestion struct {
	Question string   `json:"question"`
	DocHints []string `json:"doc_hints"`
}

var evalCmd = &cobra.Command{
	Use:   "eval [questions.json]",
	Short: "Score retrieval against a question set",
	Long: `Runs each question from a JSON file through retrieval and answering.
A question with doc_hints counts as a hit when any retrieved chunk's
filename contains one of the hints. The file is a JSON array:

  [{"question": "What is X?", "doc_hints": ["spec.pdf"]}]

Questions without hints are run and printed but not scored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	path := "questions.json"
	if len(args) == 1 {
		path = args[0]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read questions: %w", err)
	}
	var questions []evalQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		return fmt.Errorf("parse questions: %w", err)
	}

	ctx := context.Background()
	var scored, hits int

	for _, q := range questions {
		if q.Question == "" {
			continue
		}

		cmd.Printf("\nQ: %s\n", q.Question)

		answer, err := answerer.Ask(ctx, q.Question, services.DefaultK)
		if err != nil {
			cmd.PrintErrf("   error: %v\n", err)
			continue
		}

		tags := make([]string, len(answer.Retrieved))
		for i, r := range answer.Retrieved {
			tags[i] = fmt.Sprintf("%s#%d", r.Filename, r.Seq)
		}
		cmd.Printf("   retrieved: %s\n", strings.Join(tags, ", "))
		cmd.Printf("   answer: %s\n", answer.Text)

		if len(q.DocHints) == 0 {
			continue
		}
		scored++
		if hintHit(answer.Retrieved, q.DocHints) {
			hits++
		}
	}

	if scored > 0 {
		cmd.Printf("\nHit rate: %d/%d (%.0f%%)\n", hits, scored, 100*float64(hits)/float64(scored))
	}
	return nil
}

// hintHit reports whether any retrieved filename contains a hint,
// case-insensitively.
func hintHit(retrieved []domain.RetrievedChunk, hints []string) bool {
	for _, r := range retrieved {
		name := strings.ToLower(r.Filename)
		for _, h := range hints {
			if strings.Contains(name, strings.ToLower(h)) {
				return true
			}
		}
	}
	return false
}
