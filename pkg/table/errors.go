package table

import "errors"

// Sentinel errors for query, ingestion and load failures. Callers are
// expected to distinguish kinds with errors.Is; in particular ErrNotFound
// ("no such entity") versus ErrNoDataAtTime ("entity exists, not at this
// time") on query misses.
var (
	// ErrNotFound means the key never existed in the index.
	ErrNotFound = errors.New("key not found")

	// ErrNoDataAtTime means the key exists but no window satisfies the
	// requested time and loose mode.
	ErrNoDataAtTime = errors.New("no data at requested time")

	// ErrTypeMismatch means an extracted key value is not usable as a lookup
	// key. Fatal for the batch.
	ErrTypeMismatch = errors.New("key is not a comparable type")

	// ErrRecordKeyMissing means a single record lacks an extractable key.
	// Non-fatal: the record is skipped and counted.
	ErrRecordKeyMissing = errors.New("record key missing")

	// ErrOrderingViolation means a poll timestamp was not strictly greater
	// than the table's current one. The whole batch is discarded, the table
	// unchanged.
	ErrOrderingViolation = errors.New("poll timestamp not after current poll")

	// ErrInconsistentPollTimestamp means records within one batch disagree on
	// the poll time. Fatal for the batch.
	ErrInconsistentPollTimestamp = errors.New("inconsistent poll timestamp within batch")

	// ErrNoPollTimestamp means an empty batch arrived without a usable
	// fallback timestamp. The operation is rejected with no mutation.
	ErrNoPollTimestamp = errors.New("no usable poll timestamp")

	// ErrIdentityMismatch means the envelope's table name or key-extractor
	// label does not match the loading table. Fatal, load aborted.
	ErrIdentityMismatch = errors.New("table identity mismatch")

	// ErrVersionUnsupported means the envelope carries an unknown
	// serialization version. Fatal, load aborted.
	ErrVersionUnsupported = errors.New("unsupported serialization version")
)
