// Package main provides the entry point for the chronotable CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronotable/chronotable/cmd/chronotable/commands"
	"github.com/chronotable/chronotable/pkg/version"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "chronotable",
		Short: "Chronotable - windowed attribute history over periodic polls",
		Long: `Chronotable stores the attribute history of polled entities as time
windows and answers point-in-time queries against it.

Commands:
  ingest    Fold one poll file into the table
  query     Point-in-time lookup of one entity
  stats     Describe the table's change history
  times     List every ingested poll timestamp
  plot      Render the poll-interval histogram as HTML`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file path")

	rootCmd.AddCommand(commands.NewIngestCommand(&cfgPath))
	rootCmd.AddCommand(commands.NewQueryCommand(&cfgPath))
	rootCmd.AddCommand(commands.NewStatsCommand(&cfgPath))
	rootCmd.AddCommand(commands.NewTimesCommand(&cfgPath))
	rootCmd.AddCommand(commands.NewPlotCommand(&cfgPath))
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "chronotable %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
