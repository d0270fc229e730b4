package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fileproof",
	Short: "fileproof - delimited text and JSON file validation",
	Long: `fileproof checks data files before they reach your pipeline.

It auto-detects delimiters in delimited text files, verifies column
counts and quote balance per row, checks JSON documents against the
schema implied by their first element, and can flag duplicate rows.

Commands:
  validate - validate a file and print the report
  serve    - run the validation HTTP API`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
}
