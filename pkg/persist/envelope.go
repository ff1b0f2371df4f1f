package persist

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chronotable/chronotable/pkg/attrs"
	"github.com/chronotable/chronotable/pkg/window"
)

// FormatVersion is the envelope version written by this release.
// Versions 1 and 2 differ only in field naming (poll_time/times versus
// poll_msec/msecs); both are accepted on load.
const FormatVersion = 2

// ErrInvalidEnvelope is returned when an envelope fails schema validation or
// structural decoding.
var ErrInvalidEnvelope = errors.New("invalid envelope")

// WireWindow is the serialized form of one window. On the wire it is the
// four-element array [validFrom, validUntil, lastObservedAt, attributes].
type WireWindow struct {
	ValidFrom      window.Msec
	ValidUntil     window.Msec
	LastObservedAt window.Msec
	Attrs          attrs.Attributes
}

// MarshalJSON encodes the window as its wire array.
func (w WireWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{w.ValidFrom, w.ValidUntil, w.LastObservedAt, w.Attrs})
}

// UnmarshalJSON decodes the wire array form.
func (w *WireWindow) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage

	err := json.Unmarshal(data, &parts)
	if err != nil {
		return fmt.Errorf("%w: window: %w", ErrInvalidEnvelope, err)
	}

	if len(parts) != 4 {
		return fmt.Errorf("%w: window has %d elements, want 4", ErrInvalidEnvelope, len(parts))
	}

	targets := []any{&w.ValidFrom, &w.ValidUntil, &w.LastObservedAt, &w.Attrs}
	for i, target := range targets {
		err = json.Unmarshal(parts[i], target)
		if err != nil {
			return fmt.Errorf("%w: window element %d: %w", ErrInvalidEnvelope, i, err)
		}
	}

	return nil
}

// TableEnvelope is the versioned wire document for a full table dump.
// Window lists are keyed by the stringified primary key; the string form is
// never trusted on load, keys are re-derived from each window's attributes.
type TableEnvelope struct {
	Version   int
	TableName string
	PollMsec  window.Msec // window.None when the table never ingested a poll
	KeySource string      // opaque key-extractor identity label, may be empty
	Windows   map[string][]WireWindow
}

type tableEnvelopeJSON struct {
	Version   int                     `json:"version"`
	TableName string                  `json:"table_name"`
	PollMsec  *window.Msec            `json:"poll_msec"`
	PollTime  *window.Msec            `json:"poll_time,omitempty"` // legacy name
	KeySource string                  `json:"key_source,omitempty"`
	Windows   map[string][]WireWindow `json:"d"`
}

// MarshalJSON encodes the envelope with its stable field names.
func (e TableEnvelope) MarshalJSON() ([]byte, error) {
	out := tableEnvelopeJSON{
		Version:   e.Version,
		TableName: e.TableName,
		KeySource: e.KeySource,
		Windows:   e.Windows,
	}

	if !e.PollMsec.IsNone() {
		out.PollMsec = &e.PollMsec
	}

	return json.Marshal(out)
}

// UnmarshalJSON validates the document against the envelope schema, then
// decodes it, accepting the legacy poll_time field name.
func (e *TableEnvelope) UnmarshalJSON(data []byte) error {
	err := validateTableSchema(data)
	if err != nil {
		return err
	}

	var raw tableEnvelopeJSON

	err = json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}

	e.Version = raw.Version
	e.TableName = raw.TableName
	e.KeySource = raw.KeySource
	e.Windows = raw.Windows
	e.PollMsec = pollFrom(raw.PollMsec, raw.PollTime)

	return nil
}

// HistoryEnvelope is the versioned wire document for the poll-timestamp
// history, persisted independently of the table.
type HistoryEnvelope struct {
	Version   int
	TableName string
	Msecs     []window.Msec
}

type historyEnvelopeJSON struct {
	Version   int           `json:"version"`
	TableName string        `json:"table_name"`
	Msecs     []window.Msec `json:"msecs"`
	Times     []window.Msec `json:"times,omitempty"` // legacy name
}

// MarshalJSON encodes the envelope with its stable field names.
func (e HistoryEnvelope) MarshalJSON() ([]byte, error) {
	msecs := e.Msecs
	if msecs == nil {
		msecs = []window.Msec{}
	}

	return json.Marshal(historyEnvelopeJSON{
		Version:   e.Version,
		TableName: e.TableName,
		Msecs:     msecs,
	})
}

// UnmarshalJSON validates and decodes the document, accepting the legacy
// times field name.
func (e *HistoryEnvelope) UnmarshalJSON(data []byte) error {
	err := validateHistorySchema(data)
	if err != nil {
		return err
	}

	var raw historyEnvelopeJSON

	err = json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}

	e.Version = raw.Version
	e.TableName = raw.TableName

	e.Msecs = raw.Msecs
	if e.Msecs == nil {
		e.Msecs = raw.Times
	}

	return nil
}

func pollFrom(msec, legacy *window.Msec) window.Msec {
	if msec != nil {
		return *msec
	}

	if legacy != nil {
		return *legacy
	}

	return window.None
}
