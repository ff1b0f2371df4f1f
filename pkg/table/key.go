package table

import (
	"fmt"
	"reflect"

	"github.com/chronotable/chronotable/pkg/attrs"
)

// Key identifies one logical entity within a table. Any comparable value
// works; keys that are not comparable fail ingestion with ErrTypeMismatch.
type Key = any

// KeyFunc extracts an entity key from a record's attributes. It returns
// ErrRecordKeyMissing (possibly wrapped) when the record carries no key.
type KeyFunc func(attrs.Attributes) (Key, error)

// KeySpec pairs a key-extraction function with an opaque identity label.
// The label is persisted in table dumps and used only to verify that a
// loader is configured with a matching extractor; it is never executed.
type KeySpec struct {
	Func  KeyFunc
	Label string
}

// FieldKey returns a KeySpec extracting the named attribute as the key.
func FieldKey(name string) KeySpec {
	return KeySpec{
		Label: "field:" + name,
		Func: func(a attrs.Attributes) (Key, error) {
			v, ok := a[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrRecordKeyMissing, name)
			}

			return v, nil
		},
	}
}

// normalizeKey maps every numeric key to float64 at the index boundary, so
// that a key survives a JSON round trip (where all numbers decode as
// float64) and lookups with any numeric width find it.
func normalizeKey(key Key) Key {
	if f, ok := attrs.Number(key); ok {
		return f
	}

	return key
}

// checkKey verifies that a key value can be used for map lookup. A nil key
// is comparable and therefore allowed; only values of non-comparable dynamic
// type (slices, maps, functions) are rejected.
func checkKey(key Key) error {
	if key == nil {
		return nil
	}

	if !reflect.TypeOf(key).Comparable() {
		return fmt.Errorf("%w: %T", ErrTypeMismatch, key)
	}

	return nil
}
