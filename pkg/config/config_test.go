package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronotable/chronotable/pkg/table"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.Table.KeyField)
	assert.Equal(t, "polledTime", cfg.Table.TimeField)
	assert.Equal(t, ".", cfg.Store.Directory)
	assert.Equal(t, "lz4", cfg.Store.Codec)
	assert.Equal(t, "later", cfg.Query.Loose)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadConfig_FromFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
table:
  name: hosts
  key_field: hostname
  time_field: observedAt
store:
  directory: /var/lib/chronotable
  codec: gzip
query:
  loose: exact
logging:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, "hosts", cfg.Table.Name)
	assert.Equal(t, "hostname", cfg.Table.KeyField)
	assert.Equal(t, "observedAt", cfg.Table.TimeField)
	assert.Equal(t, "/var/lib/chronotable", cfg.Store.Directory)
	assert.Equal(t, "gzip", cfg.Store.Codec)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	// An explicit path that does not exist is an error.
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("CHRONOTABLE_STORE_CODEC", "json")

	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Store.Codec)
}

func TestLoadConfig_Validation(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{"empty key field", "table:\n  key_field: \"\"\n", ErrMissingKeyField},
		{"unknown codec", "store:\n  codec: zstd\n", ErrInvalidCodec},
		{"unknown loose", "query:\n  loose: nearest\n", ErrInvalidLoose},
		{"unknown level", "logging:\n  level: loud\n", ErrInvalidLogLevel},
		{"unknown format", "logging:\n  format: xml\n", ErrInvalidLogFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.yaml))
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestQueryConfig_ParseLoose(t *testing.T) {
	t.Parallel()

	cases := map[string]table.Loose{
		"earlier": table.PreferEarlier,
		"exact":   table.Exact,
		"later":   table.PreferLater,
	}

	for in, want := range cases {
		got, err := QueryConfig{Loose: in}.ParseLoose()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := QueryConfig{Loose: "sideways"}.ParseLoose()
	assert.ErrorIs(t, err, ErrInvalidLoose)
}
