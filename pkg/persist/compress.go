package persist

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// GzipCodec wraps the JSON codec in a gzip stream, the original on-disk
// format for table dumps (<table>.json.gz).
type GzipCodec struct {
	inner Codec
}

// NewGzipCodec creates a gzip-compressed JSON codec.
func NewGzipCodec() *GzipCodec {
	return &GzipCodec{inner: NewJSONCodec()}
}

// Encode implements Codec.Encode through a gzip writer.
func (c *GzipCodec) Encode(w io.Writer, state any) error {
	zw := gzip.NewWriter(w)

	err := c.inner.Encode(zw, state)
	if err != nil {
		zw.Close()

		return err
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode through a gzip reader.
func (c *GzipCodec) Decode(r io.Reader, state any) error {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("gzip open: %w", err)
	}
	defer zr.Close()

	return c.inner.Decode(zr, state)
}

// Extension implements Codec.Extension for gzipped JSON files.
func (c *GzipCodec) Extension() string {
	return gzipExtension
}

// LZ4Codec wraps the JSON codec in an LZ4 frame stream.
type LZ4Codec struct {
	inner Codec
}

// NewLZ4Codec creates an LZ4-compressed JSON codec.
func NewLZ4Codec() *LZ4Codec {
	return &LZ4Codec{inner: NewJSONCodec()}
}

// Encode implements Codec.Encode through an LZ4 frame writer.
func (c *LZ4Codec) Encode(w io.Writer, state any) error {
	zw := lz4.NewWriter(w)

	err := c.inner.Encode(zw, state)
	if err != nil {
		zw.Close()

		return err
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("lz4 close: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode through an LZ4 frame reader.
func (c *LZ4Codec) Decode(r io.Reader, state any) error {
	return c.inner.Decode(lz4.NewReader(r), state)
}

// Extension implements Codec.Extension for LZ4-compressed JSON files.
func (c *LZ4Codec) Extension() string {
	return lz4Extension
}
