package persist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronotable/chronotable/pkg/attrs"
	"github.com/chronotable/chronotable/pkg/window"
)

func sampleTableEnvelope() TableEnvelope {
	return TableEnvelope{
		Version:   FormatVersion,
		TableName: "devices",
		PollMsec:  3000,
		KeySource: "field:id",
		Windows: map[string][]WireWindow{
			"1": {
				{ValidFrom: 1000, ValidUntil: 2000, LastObservedAt: 1500, Attrs: attrs.Attributes{"id": float64(1), "v": "a"}},
				{ValidFrom: 2000, ValidUntil: window.Infinity, LastObservedAt: 3000, Attrs: attrs.Attributes{"id": float64(1), "v": "b"}},
			},
		},
	}
}

func TestWireWindow_ArrayForm(t *testing.T) {
	t.Parallel()

	w := WireWindow{ValidFrom: 10, ValidUntil: window.Infinity, LastObservedAt: 20, Attrs: attrs.Attributes{"id": float64(7)}}

	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `[10, 4398046511104, 20, {"id": 7}]`, string(data))

	var back WireWindow

	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, w, back)
}

func TestWireWindow_RejectsWrongArity(t *testing.T) {
	t.Parallel()

	var w WireWindow

	err := json.Unmarshal([]byte(`[10, 20, 30]`), &w)
	require.ErrorIs(t, err, ErrInvalidEnvelope)

	err = json.Unmarshal([]byte(`{"validFrom": 10}`), &w)
	require.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestTableEnvelope_RoundTrip(t *testing.T) {
	t.Parallel()

	env := sampleTableEnvelope()

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var back TableEnvelope

	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, env, back)
}

func TestTableEnvelope_FieldNames(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(sampleTableEnvelope())
	require.NoError(t, err)

	var raw map[string]json.RawMessage

	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "version")
	assert.Contains(t, raw, "table_name")
	assert.Contains(t, raw, "poll_msec")
	assert.Contains(t, raw, "key_source")
	assert.Contains(t, raw, "d")
	assert.NotContains(t, raw, "poll_time")
}

func TestTableEnvelope_NoPollSerializesNull(t *testing.T) {
	t.Parallel()

	env := TableEnvelope{Version: FormatVersion, TableName: "t", PollMsec: window.None, Windows: map[string][]WireWindow{}}

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"poll_msec":null`)

	var back TableEnvelope

	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, window.None, back.PollMsec)
}

func TestTableEnvelope_LegacyPollTime(t *testing.T) {
	t.Parallel()

	doc := `{"version": 1, "table_name": "devices", "poll_time": 2500, "d": {}}`

	var env TableEnvelope

	require.NoError(t, json.Unmarshal([]byte(doc), &env))
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, window.Msec(2500), env.PollMsec)
}

func TestTableEnvelope_SchemaRejectsMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing table_name", doc: `{"version": 2, "d": {}}`},
		{name: "d not object", doc: `{"version": 2, "table_name": "t", "d": []}`},
		{name: "window arity", doc: `{"version": 2, "table_name": "t", "d": {"1": [[1, 2, 3]]}}`},
		{name: "version not integer", doc: `{"version": "2", "table_name": "t", "d": {}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var env TableEnvelope

			err := json.Unmarshal([]byte(tc.doc), &env)
			require.ErrorIs(t, err, ErrInvalidEnvelope)
		})
	}
}

func TestHistoryEnvelope_RoundTrip(t *testing.T) {
	t.Parallel()

	env := HistoryEnvelope{Version: FormatVersion, TableName: "devices", Msecs: []window.Msec{1000, 2000, 3000}}

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msecs"`)

	var back HistoryEnvelope

	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, env, back)
}

func TestHistoryEnvelope_LegacyTimes(t *testing.T) {
	t.Parallel()

	doc := `{"version": 1, "table_name": "devices", "times": [1000, 2000]}`

	var env HistoryEnvelope

	require.NoError(t, json.Unmarshal([]byte(doc), &env))
	assert.Equal(t, []window.Msec{1000, 2000}, env.Msecs)
}

func TestHistoryEnvelope_SchemaRejectsMalformed(t *testing.T) {
	t.Parallel()

	var env HistoryEnvelope

	err := json.Unmarshal([]byte(`{"version": 2, "table_name": "t", "msecs": ["x"]}`), &env)
	require.ErrorIs(t, err, ErrInvalidEnvelope)
}
