// Package persist provides codec-based persistence for the table's wire
// envelopes: plain JSON text, optionally compressed with gzip or LZ4.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrUnknownCodec is returned by ByName for an unregistered codec name.
var ErrUnknownCodec = errors.New("unknown codec")

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	gzipExtension = ".json.gz"
	lz4Extension  = ".json.lz4"
)

// Codec defines how an envelope is serialized and deserialized.
type Codec interface {
	// Encode writes the state to the writer.
	Encode(w io.Writer, state any) error
	// Decode reads the state from the reader.
	Decode(r io.Reader, state any) error
	// Extension returns the file extension for this codec (e.g. ".json").
	Extension() string
}

// JSONCodec implements Codec using compact JSON text, the table's native
// wire format.
type JSONCodec struct{}

// NewJSONCodec creates a JSON codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, state any) error {
	err := json.NewEncoder(w).Encode(state)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader, state any) error {
	err := json.NewDecoder(r).Decode(state)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for JSON files.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// ByName returns the codec registered under name: "json", "gzip" or "lz4".
func ByName(name string) (Codec, error) {
	switch name {
	case "json", "":
		return NewJSONCodec(), nil
	case "gzip", "gz":
		return NewGzipCodec(), nil
	case "lz4":
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// SaveFile writes state to path using the given codec.
func SaveFile(path string, codec Codec, state any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}
	defer file.Close()

	err = codec.Encode(file, state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	return nil
}

// LoadFile reads state from path using the given codec.
// The state parameter must be a pointer to the target struct.
func LoadFile(path string, codec Codec, state any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, state)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}
