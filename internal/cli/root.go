// Package cli provides the command-line interface for fileanalysis.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sangupta/fileanalysis/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors keeps cobra from printing it
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	global := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "fileanalysis",
		Short: "Load delimited files and application logs into a database",
		Long: `fileanalysis reads semi-structured text files, infers a typed schema and
loads every record as a row, ready for ad hoc SQL.

Formats:
  csv, tsv, pipe, delimited   tables, header row optional
  apache                      Apache common/combined access logs
  log4j, logback              multi-line application logs

Rows go to ClickHouse, PostgreSQL or an in-memory sink (see --config).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&global.ConfigPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&global.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(commands.NewLoadCommand(global))
	rootCmd.AddCommand(commands.NewSchemaCommand(global))
	rootCmd.AddCommand(commands.NewWidthsCommand(global))
	rootCmd.AddCommand(commands.NewFormatsCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
