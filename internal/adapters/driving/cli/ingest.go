package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

var ingestWait bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [doc-ids...]",
	Short: "Extract, chunk, embed and index documents",
	Long: `Starts a background ingestion job. With no arguments every document
in state PENDING or NEEDS_PROCESSING is picked up; with arguments only
the named documents are processed. Failed documents are marked with an
ERROR status and do not stop the job.

The vector index is rebuilt over the whole corpus when the job
finishes.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWait, "wait", "w", true, "wait for the job and show progress")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	jobID, err := ingestor.StartIngestion(context.Background(), args)
	if err != nil {
		return fmt.Errorf("start ingestion: %w", err)
	}

	if !ingestWait {
		cmd.Printf("Started job %s\n", jobID)
		cmd.Printf("Check progress with: docfold status %s\n", jobID)
		return nil
	}

	job := pollJob(jobID)
	if job == nil {
		return fmt.Errorf("job %s disappeared", jobID)
	}

	cmd.Printf("\nProcessed %d of %d documents, embedded %d chunks\n",
		len(job.ProcessedDocs), len(job.QueuedDocs), job.EmbeddedChunks)

	if job.State == domain.JobError {
		return fmt.Errorf("job failed: %s", job.Error)
	}
	return nil
}

// pollJob watches a job until it finishes, rendering chunk embedding
// progress. The bar total grows as documents are chunked, so it is
// re-created whenever TotalChunks moves.
func pollJob(jobID string) *domain.Job {
	var bar *progressbar.ProgressBar
	barTotal := -1

	for {
		job, ok := ingestor.JobStatus(jobID)
		if !ok {
			return nil
		}

		if job.TotalChunks > 0 && job.TotalChunks != barTotal {
			barTotal = job.TotalChunks
			bar = progressbar.NewOptions(barTotal,
				progressbar.OptionSetDescription("Embedding"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		if bar != nil {
			_ = bar.Set(job.EmbeddedChunks)
		}

		if job.State.Terminal() {
			return job
		}
		time.Sleep(100 * time.Millisecond)
	}
}
