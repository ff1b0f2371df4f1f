package commands

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chronotable/chronotable/pkg/attrs"
	"github.com/chronotable/chronotable/pkg/config"
	"github.com/chronotable/chronotable/pkg/window"
)

// ErrBadRecord is returned when a poll file line is not a JSON object.
var ErrBadRecord = errors.New("poll record is not a JSON object")

// IngestCommand holds the configuration for the ingest command.
type IngestCommand struct {
	cfgPath  string
	fallback int64
}

// NewIngestCommand creates and configures the ingest command.
func NewIngestCommand(cfgPath *string) *cobra.Command {
	ic := &IngestCommand{}

	cobraCmd := &cobra.Command{
		Use:   "ingest [poll.jsonl]",
		Short: "Fold one poll file into the table",
		Long: `Fold one poll into the table and save it.

The poll file holds one JSON object per line, each describing one observed
entity. With no file argument the poll is read from stdin. The observation
timestamp is taken from the configured time field of the first record, or
from --fallback when no record carries one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ic.cfgPath = *cfgPath

			return ic.run(cmd, args)
		},
	}

	cobraCmd.Flags().Int64Var(&ic.fallback, "fallback", 0,
		"Fallback poll timestamp in msec when records carry none (0 = none)")

	return cobraCmd
}

func (ic *IngestCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(ic.cfgPath)
	if err != nil {
		return err
	}

	s, err := openStore(cfg, false)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()

	if len(args) == 1 {
		file, openErr := os.Open(args[0])
		if openErr != nil {
			return fmt.Errorf("open poll file: %w", openErr)
		}
		defer file.Close()

		in = file
	}

	records, readErr := readPoll(in)

	fallback := window.None
	if ic.fallback != 0 {
		fallback = window.Msec(ic.fallback)
	}

	res, err := s.tbl.Update(records, fallback)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	if err := readErr(); err != nil {
		return err
	}

	err = s.save()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	color.New(color.FgGreen).Fprintf(out, "poll %d ingested (%s)\n", res.PollMsec, res.Units)
	fmt.Fprintf(out, "records %d, skipped %d, opened %d, extended %d, closed %d\n",
		res.Records, res.Skipped, res.Opened, res.Extended, res.Closed)

	return nil
}

// readPoll streams JSONL records off the reader. Decode failures surface
// through the returned error function after the sequence is consumed, so the
// batch can be rejected before any state was saved.
func readPoll(r io.Reader) (iter.Seq[attrs.Attributes], func() error) {
	var readErr error

	seq := func(yield func(attrs.Attributes) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

		line := 0
		for scanner.Scan() {
			line++

			raw := scanner.Bytes()
			if len(raw) == 0 {
				continue
			}

			var rec attrs.Attributes

			err := json.Unmarshal(raw, &rec)
			if err != nil {
				readErr = fmt.Errorf("line %d: %w: %w", line, ErrBadRecord, err)

				return
			}

			if !yield(rec) {
				return
			}
		}

		readErr = scanner.Err()
	}

	return seq, func() error { return readErr }
}
