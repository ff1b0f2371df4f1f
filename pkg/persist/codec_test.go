package persist

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testState is a plain struct for round-trip codec testing.
type testState struct {
	Name   string         `json:"name"`
	Count  int            `json:"count"`
	Values map[string]int `json:"values"`
}

func sampleState() testState {
	return testState{
		Name:   "test",
		Count:  42,
		Values: map[string]int{"a": 1, "b": 2},
	}
}

func roundTrip(t *testing.T, codec Codec) {
	t.Helper()

	original := sampleState()

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, original))

	var decoded testState

	require.NoError(t, codec.Decode(&buf, &decoded))

	assert.Equal(t, original, decoded)
}

func TestJSONCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	roundTrip(t, NewJSONCodec())
}

func TestGzipCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	roundTrip(t, NewGzipCodec())
}

func TestLZ4Codec_RoundTrip(t *testing.T) {
	t.Parallel()

	roundTrip(t, NewLZ4Codec())
}

func TestGzipCodec_EmitsCompressedStream(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, NewGzipCodec().Encode(&buf, sampleState()))

	// gzip magic bytes.
	raw := buf.Bytes()
	require.Greater(t, len(raw), 2)
	assert.Equal(t, byte(0x1f), raw[0])
	assert.Equal(t, byte(0x8b), raw[1])
}

func TestCodec_Extensions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".json", NewJSONCodec().Extension())
	assert.Equal(t, ".json.gz", NewGzipCodec().Extension())
	assert.Equal(t, ".json.lz4", NewLZ4Codec().Extension())
}

func TestByName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ext  string
	}{
		{name: "json", ext: ".json"},
		{name: "", ext: ".json"},
		{name: "gzip", ext: ".json.gz"},
		{name: "gz", ext: ".json.gz"},
		{name: "lz4", ext: ".json.lz4"},
	}

	for _, tc := range tests {
		codec, err := ByName(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.ext, codec.Extension())
	}

	_, err := ByName("zstd")
	require.ErrorIs(t, err, ErrUnknownCodec)
}

func TestSaveLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "state"+gzipExtension)
	codec := NewGzipCodec()

	require.NoError(t, SaveFile(path, codec, sampleState()))

	var decoded testState

	require.NoError(t, LoadFile(path, codec, &decoded))
	assert.Equal(t, sampleState(), decoded)

	require.Error(t, LoadFile(filepath.Join(dir, "missing.json"), NewJSONCodec(), &decoded))
}

func TestPersister_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := NewPersister[testState]("table", NewJSONCodec())

	assert.Equal(t, filepath.Join(dir, "table.json"), p.Path(dir))

	require.NoError(t, p.Save(dir, func() *testState {
		s := sampleState()

		return &s
	}))

	var got testState

	require.NoError(t, p.Load(dir, func(s *testState) error {
		got = *s

		return nil
	}))
	assert.Equal(t, sampleState(), got)
}
