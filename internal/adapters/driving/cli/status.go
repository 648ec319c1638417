package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show the progress of an ingestion job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	job, ok := ingestor.JobStatus(args[0])
	if !ok {
		return fmt.Errorf("job %s not found (jobs live only as long as the starting process)", args[0])
	}

	if statusJSON {
		out := map[string]any{
			"job_id":          job.ID,
			"state":           job.State,
			"queued_docs":     job.QueuedDocs,
			"processed_docs":  job.ProcessedDocs,
			"total_chunks":    job.TotalChunks,
			"embedded_chunks": job.EmbeddedChunks,
		}
		if job.Error != "" {
			out["error"] = job.Error
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Job:      %s\n", job.ID)
	cmd.Printf("State:    %s\n", job.State)
	cmd.Printf("Docs:     %d of %d processed\n", len(job.ProcessedDocs), len(job.QueuedDocs))
	cmd.Printf("Chunks:   %d of %d embedded\n", job.EmbeddedChunks, job.TotalChunks)
	if job.Error != "" {
		cmd.Printf("Error:    %s\n", job.Error)
	}
	return nil
}
