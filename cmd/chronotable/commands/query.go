package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chronotable/chronotable/pkg/config"
	"github.com/chronotable/chronotable/pkg/table"
	"github.com/chronotable/chronotable/pkg/window"
)

// QueryCommand holds the configuration for the query command.
type QueryCommand struct {
	cfgPath string
	key     string
	at      int64
	loose   string
}

// NewQueryCommand creates and configures the query command.
func NewQueryCommand(cfgPath *string) *cobra.Command {
	qc := &QueryCommand{}

	cobraCmd := &cobra.Command{
		Use:   "query",
		Short: "Point-in-time lookup of one entity",
		Long: `Look up the attributes an entity had at a given time.

The mode decides what happens when the timestamp falls outside every
window: "exact" fails, "earlier" falls back to the nearest earlier window,
"later" to the nearest later one.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			qc.cfgPath = *cfgPath

			return qc.run(cmd)
		},
	}

	cobraCmd.Flags().StringVarP(&qc.key, "key", "k", "", "Entity key (required)")
	cobraCmd.Flags().Int64Var(&qc.at, "at", 0, "Query timestamp in msec (0 = config default, falling back to now)")
	cobraCmd.Flags().StringVar(&qc.loose, "loose", "", "Query mode: earlier, exact or later (default from config)")
	_ = cobraCmd.MarkFlagRequired("key")

	return cobraCmd
}

func (qc *QueryCommand) run(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(qc.cfgPath)
	if err != nil {
		return err
	}

	s, err := openStore(cfg, true)
	if err != nil {
		return err
	}

	at, loose := s.tbl.QueryContext()

	if qc.at != 0 {
		at = window.Msec(qc.at)
	}

	if qc.loose != "" {
		loose, err = config.QueryConfig{Loose: qc.loose}.ParseLoose()
		if err != nil {
			return err
		}
	}

	a, err := s.tbl.Find(parseKey(qc.key), at, loose)
	if err != nil {
		if errors.Is(err, table.ErrNotFound) || errors.Is(err, table.ErrNoDataAtTime) {
			color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "%v\n", err)
		}

		return err
	}

	out, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("render attributes: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	return nil
}
