package table

import (
	"fmt"
	"iter"

	"github.com/google/uuid"

	"github.com/chronotable/chronotable/pkg/attrs"
	"github.com/chronotable/chronotable/pkg/window"
)

// futureGrace disambiguates timestamp units: a value that lands more than
// this far past now after seconds-to-milliseconds scaling was already in
// milliseconds.
const futureGrace = 100 * 24 * 60 * 60 * 1000 // 100 days in msec

// Units is the diagnostic interpretation of the batch's source timestamps.
type Units int

// Units values.
const (
	UnitsUnknown Units = iota
	UnitsSeconds
	UnitsMillis
)

// String returns the unit name.
func (u Units) String() string {
	switch u {
	case UnitsSeconds:
		return "seconds"
	case UnitsMillis:
		return "milliseconds"
	default:
		return "unknown"
	}
}

// Result is the outcome of one Update call.
type Result struct {
	BatchID  uuid.UUID   // correlation id for diagnostics
	PollMsec window.Msec // poll timestamp applied, window.None when rejected
	Units    Units
	Rejected bool // whole batch discarded, table unchanged
	Records  int  // records seen in the batch
	Skipped  int  // records without an extractable key
	Opened   int  // windows created
	Extended int  // open windows confirmed unchanged
	Closed   int  // windows closed (attribute change or disappearance)
}

// Update folds one poll into the table. Each record is an attribute set,
// optionally carrying the observation timestamp in the table's time field;
// fallback is used when no record carries one (window.None for no fallback).
//
// The poll timestamp must be strictly greater than the table's current one,
// otherwise the whole batch is discarded unchanged (ErrOrderingViolation).
// Records within one batch must agree on the poll time
// (ErrInconsistentPollTimestamp, fatal). A record without an extractable
// key is skipped and counted; a key that cannot be used for lookup is fatal
// (ErrTypeMismatch). Entities absent from the poll have their open window
// closed at the change boundary.
//
// Update is not reentrant and must not run concurrently with queries.
func (t *Table) Update(poll iter.Seq[attrs.Attributes], fallback window.Msec) (Result, error) {
	res := Result{BatchID: uuid.New(), PollMsec: window.None, Units: UnitsUnknown}
	logger := t.logger.With("batch", res.BatchID.String())

	thisPoll := window.None
	changeMsec := window.None
	scale := 1000.0 // msec per source unit; 1.0 once units are known to be msec
	future := window.Now() + futureGrace

	for rec := range poll {
		res.Records++

		if res.Records == 1 {
			if raw, ok := rec[t.timeField]; ok {
				if f, numeric := attrs.Float(raw); numeric {
					thisPoll = window.Msec(f * scale)
					res.Units = UnitsSeconds

					if thisPoll > future { // already in milliseconds
						scale = 1.0
						thisPoll = window.Msec(f)
						res.Units = UnitsMillis
					}
				}
			}

			if thisPoll.IsNone() {
				thisPoll = fallback
				res.Units = UnitsUnknown
			}

			if thisPoll.IsNone() {
				res.Rejected = true
				logger.Warn("batch has no poll timestamp and no fallback, rejected")

				return res, fmt.Errorf("first record: %w", ErrNoPollTimestamp)
			}

			if !t.pollMsec.IsNone() && thisPoll <= t.pollMsec {
				res.Rejected = true
				logger.Warn("poll not after current poll, batch rejected",
					"poll_msec", int64(thisPoll), "current_msec", int64(t.pollMsec))

				return res, fmt.Errorf("poll %d <= current %d: %w", thisPoll, t.pollMsec, ErrOrderingViolation)
			}

			// The change happened somewhere between the previous poll and
			// this one; split the difference.
			changeMsec = window.Mid(t.pollMsec, thisPoll)
		} else if raw, ok := rec[t.timeField]; ok {
			if f, numeric := attrs.Float(raw); numeric {
				if pt := window.Msec(f * scale); pt != thisPoll {
					return res, fmt.Errorf("record %d: poll %d != batch poll %d: %w",
						res.Records, pt, thisPoll, ErrInconsistentPollTimestamp)
				}
			}
		}

		rec = rec.Clone()
		delete(rec, t.timeField) // the observation timestamp is not state

		key, err := t.keySpec.Func(rec)
		if err != nil {
			res.Skipped++
			logger.Warn("record key missing, skipped", "error", err)

			continue
		}

		err = checkKey(key)
		if err != nil {
			return res, err
		}

		t.fold(normalizeKey(key), rec, changeMsec, thisPoll, &res)
	}

	if res.Records == 0 {
		if fallback.IsNone() {
			res.Rejected = true
			logger.Warn("empty batch with no fallback timestamp, rejected")

			return res, fmt.Errorf("empty batch: %w", ErrNoPollTimestamp)
		}

		thisPoll = fallback

		if !t.pollMsec.IsNone() && thisPoll <= t.pollMsec {
			res.Rejected = true

			return res, fmt.Errorf("poll %d <= current %d: %w", thisPoll, t.pollMsec, ErrOrderingViolation)
		}

		changeMsec = window.Mid(t.pollMsec, thisPoll)
	}

	// Close every open window not confirmed by this poll: disappearance is a
	// state transition to "undefined", not a deletion.
	for _, list := range t.primary.d {
		last := t.arena.At(list.Last())
		if last.Open() && last.LastObservedAt != thisPoll {
			last.ValidUntil = changeMsec
			res.Closed++
		}
	}

	t.pollMsec = thisPoll
	t.msecs = append(t.msecs, thisPoll)
	res.PollMsec = thisPoll

	logger.Info("poll ingested",
		"poll_msec", int64(thisPoll), "units", res.Units.String(),
		"records", res.Records, "skipped", res.Skipped,
		"opened", res.Opened, "extended", res.Extended, "closed", res.Closed)

	return res, nil
}

// fold merges one record into its key's window list.
func (t *Table) fold(key Key, rec attrs.Attributes, changeMsec, thisPoll window.Msec, res *Result) {
	list, exists := t.primary.d[key]
	if !exists {
		t.addWindow(key, window.Window{
			ValidFrom: changeMsec, ValidUntil: window.Infinity,
			LastObservedAt: thisPoll, Attrs: rec,
		})
		res.Opened++

		return
	}

	last := t.arena.At(list.Last())

	if last.Open() {
		if last.Attrs.Equal(rec) {
			// Same state confirmed again: extend in place. Visible through
			// every index with no propagation.
			last.LastObservedAt = thisPoll
			res.Extended++

			return
		}

		last.ValidUntil = changeMsec
		res.Closed++
	}

	t.addWindow(key, window.Window{
		ValidFrom: changeMsec, ValidUntil: window.Infinity,
		LastObservedAt: thisPoll, Attrs: rec,
	})
	res.Opened++
}
