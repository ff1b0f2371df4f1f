package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/chronotable/chronotable/pkg/config"
)

// TimesCommand holds the configuration for the times command.
type TimesCommand struct {
	cfgPath string
}

// NewTimesCommand creates and configures the times command.
func NewTimesCommand(cfgPath *string) *cobra.Command {
	tc := &TimesCommand{}

	return &cobra.Command{
		Use:   "times",
		Short: "List every ingested poll timestamp",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tc.cfgPath = *cfgPath

			return tc.run(cmd)
		},
	}
}

func (tc *TimesCommand) run(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(tc.cfgPath)
	if err != nil {
		return err
	}

	s, err := openStore(cfg, true)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	msecs := s.tbl.History()

	fmt.Fprintf(out, "%s polls\n", humanize.Comma(int64(len(msecs))))

	if len(msecs) == 0 {
		return nil
	}

	w := table.NewWriter()
	w.SetOutputMirror(out)
	w.AppendHeader(table.Row{"#", "Msec", "Time", "Gap"})

	for i, m := range msecs {
		gap := ""
		if i > 0 {
			gap = humanize.Comma(int64(m - msecs[i-1]))
		}

		w.AppendRow(table.Row{i + 1, int64(m), m.Time().UTC().Format("2006-01-02 15:04:05"), gap})
	}

	w.Render()

	return nil
}
