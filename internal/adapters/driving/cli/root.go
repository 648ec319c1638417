// Package cli implements the docfold command line interface.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/logger"
)

var (
	flagVerbose bool
	flagDataDir string
)

var rootCmd = &cobra.Command{
	Use:   "docfold",
	Short: "Ask questions over your own documents",
	Long: `Docfold ingests local documents (txt, md, pdf, docx), embeds their
content, and answers questions grounded in the retrieved passages.

All state lives under the data directory (default ~/.docfold):
the document database, the vector index, the embedding cache and
copies of uploaded files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// .env is optional; real environment wins over file values.
		_ = godotenv.Load()
		logger.SetVerbose(flagVerbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return wireServices()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.docfold)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
