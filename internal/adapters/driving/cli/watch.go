package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/logger"
)

// watchSettle is how long a file must be quiet before registration.
// Editors and downloads write in bursts; acting on the first event
// would register half-written files.
const watchSettle = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest new files automatically",
	Long: `Watches a directory for new or changed files. Each settled file is
registered and an ingestion job is started for it. Duplicate content
is skipped. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	cmd.Printf("Watching %s (ctrl-c to stop)\n", dir)

	// Pending files and their last-write time, drained by the ticker
	// once they settle.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(watchSettle / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending[event.Name] = time.Now()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < watchSettle {
					continue
				}
				delete(pending, path)
				ingestFile(cmd, path)
			}
		case <-sigCh:
			cmd.Println("\nStopping.")
			return nil
		}
	}
}

// ingestFile registers one settled file and starts a job for it.
// Failures are reported and swallowed so the watch loop keeps running.
func ingestFile(cmd *cobra.Command, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	ctx := context.Background()
	doc, err := registrar.Register(ctx, path)
	if err != nil {
		cmd.PrintErrf("  %s: %v\n", path, err)
		return
	}
	if doc.Status == domain.StatusDuplicate {
		logger.Debug("Skipping duplicate %s", path)
		return
	}

	jobID, err := ingestor.StartIngestion(ctx, []string{doc.ID})
	if err != nil {
		cmd.PrintErrf("  %s: start ingestion: %v\n", path, err)
		return
	}
	cmd.Printf("  %s: registered as %s, job %s\n", doc.Filename, doc.ID, jobID)
}
