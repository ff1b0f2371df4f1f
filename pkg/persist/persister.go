package persist

import "path/filepath"

// Persister handles file I/O for a specific envelope type using a Codec.
// The filename is <basename><codec extension> inside the chosen directory.
type Persister[T any] struct {
	basename string
	codec    Codec
}

// NewPersister creates a persister with the given basename and codec.
func NewPersister[T any](basename string, codec Codec) *Persister[T] {
	return &Persister[T]{
		basename: basename,
		codec:    codec,
	}
}

// Path returns the file path the persister reads and writes inside dir.
func (p *Persister[T]) Path(dir string) string {
	return filepath.Join(dir, p.basename+p.codec.Extension())
}

// Save writes the envelope produced by build to the given directory.
func (p *Persister[T]) Save(dir string, build func() *T) error {
	return SaveFile(p.Path(dir), p.codec, build())
}

// Load reads the envelope from the given directory and hands it to restore.
func (p *Persister[T]) Load(dir string, restore func(*T) error) error {
	var state T

	err := LoadFile(p.Path(dir), p.codec, &state)
	if err != nil {
		return err
	}

	return restore(&state)
}
