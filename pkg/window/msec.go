// Package window models the time windows during which a tracked entity's
// attributes were constant. All windows live in a single Arena and are
// addressed by stable handles, so that a primary index and any number of
// secondary indices can share (and observe in-place mutation of) the same
// window records without copies.
package window

import "time"

// Msec is a timestamp in epoch milliseconds.
type Msec int64

// Infinity marks the open end of a window: the entity's most recently
// confirmed state, valid until a later poll closes it.
const Infinity Msec = 1 << 42

// None is the explicit absent-timestamp variant, used where the original
// value is undefined (e.g. a table that has not ingested any poll yet).
const None Msec = -1

// Now returns the current time in epoch milliseconds.
func Now() Msec {
	return Msec(time.Now().UnixMilli())
}

// IsNone reports whether the timestamp is the absent variant.
func (m Msec) IsNone() bool {
	return m == None
}

// Time converts the timestamp to a time.Time in the local zone.
func (m Msec) Time() time.Time {
	return time.UnixMilli(int64(m))
}

// Mid returns the midpoint of two timestamps. An absent operand is absorbed:
// Mid(None, x) == Mid(x, None) == x.
func Mid(x, y Msec) Msec {
	if x.IsNone() {
		return y
	}

	if y.IsNone() {
		return x
	}

	return (x + y) / 2
}
