// Package commands implements the chronotable CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/chronotable/chronotable/pkg/config"
	"github.com/chronotable/chronotable/pkg/logging"
	"github.com/chronotable/chronotable/pkg/persist"
	"github.com/chronotable/chronotable/pkg/table"
	"github.com/chronotable/chronotable/pkg/window"
)

// ErrNoStore is returned when a command needs an existing table on disk and
// none is found.
var ErrNoStore = errors.New("no table found in store directory")

// tableBasename and historyBasename name the two store files; the codec
// appends its extension.
const (
	tableBasename   = "table"
	historyBasename = "history"
)

// store ties a table to its two on-disk envelopes.
type store struct {
	cfg     *config.Config
	tbl     *table.Table
	tables  *persist.Persister[persist.TableEnvelope]
	history *persist.Persister[persist.HistoryEnvelope]
}

// openStore builds the table from configuration and loads both envelopes
// when they exist. A missing table file is only an error when required.
func openStore(cfg *config.Config, required bool) (*store, error) {
	logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	opts := []table.Option{table.WithLogger(logger)}
	if cfg.Table.TimeField != "" {
		opts = append(opts, table.WithTimeField(cfg.Table.TimeField))
	}

	if cfg.Query.At != 0 {
		loose, err := cfg.Query.ParseLoose()
		if err != nil {
			return nil, err
		}

		opts = append(opts, table.WithQueryContext(window.Msec(cfg.Query.At), loose))
	}

	codec, err := persist.ByName(cfg.Store.Codec)
	if err != nil {
		return nil, err
	}

	s := &store{
		cfg:     cfg,
		tbl:     table.New(cfg.Table.Name, table.FieldKey(cfg.Table.KeyField), opts...),
		tables:  persist.NewPersister[persist.TableEnvelope](tableBasename, codec),
		history: persist.NewPersister[persist.HistoryEnvelope](historyBasename, codec),
	}

	err = s.tables.Load(cfg.Store.Directory, s.tbl.Load)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if required {
			return nil, fmt.Errorf("%s: %w", s.tables.Path(cfg.Store.Directory), ErrNoStore)
		}
	case err != nil:
		return nil, fmt.Errorf("load table: %w", err)
	}

	err = s.history.Load(cfg.Store.Directory, s.tbl.LoadHistory)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load history: %w", err)
	}

	return s, nil
}

// save writes both envelopes back to the store directory.
func (s *store) save() error {
	err := s.tables.Save(s.cfg.Store.Directory, s.tbl.Dump)
	if err != nil {
		return fmt.Errorf("save table: %w", err)
	}

	err = s.history.Save(s.cfg.Store.Directory, s.tbl.DumpHistory)
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	return nil
}

// parseKey turns the command line key argument into a lookup key. Numeric
// strings query by number, everything else by the raw string.
func parseKey(raw string) table.Key {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}

	return raw
}
