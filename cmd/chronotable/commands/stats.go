package commands

import (
	"github.com/spf13/cobra"

	"github.com/chronotable/chronotable/pkg/config"
)

// StatsCommand holds the configuration for the stats command.
type StatsCommand struct {
	cfgPath string
	verbose bool
}

// NewStatsCommand creates and configures the stats command.
func NewStatsCommand(cfgPath *string) *cobra.Command {
	sc := &StatsCommand{}

	cobraCmd := &cobra.Command{
		Use:   "stats",
		Short: "Describe the table's change history",
		Long: `Describe the table: entity and window counts, a windows-per-entity
histogram and, with --verbose, which attributes drove the changes and their
most frequent values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc.cfgPath = *cfgPath

			return sc.run(cmd)
		},
	}

	cobraCmd.Flags().BoolVarP(&sc.verbose, "verbose", "v", false, "Include per-attribute detail")

	return cobraCmd
}

func (sc *StatsCommand) run(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(sc.cfgPath)
	if err != nil {
		return err
	}

	s, err := openStore(cfg, true)
	if err != nil {
		return err
	}

	s.tbl.Stats().Render(cmd.OutOrStdout(), sc.verbose)

	return nil
}
