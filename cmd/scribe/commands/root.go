package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Clinical session transcription and review service",
	Long: `scribe - transcribes recorded clinical visits, labels the speakers,
summarizes the conversation, and flags discrepancies between what was said
and what the clinician documented.

Examples:
  # Run the ingestion server with a config file
  scribe serve -c config.yaml

  # Show version
  scribe version`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
