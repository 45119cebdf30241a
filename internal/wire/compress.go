// Package wire implements the framed message protocol spoken between the
// agent and the desktop inspector: length-prefixed frames carrying
// gzip-compressed JSON envelopes.
package wire

import (
	"bytes"
	"compress/gzip"
	"io"
)

// GZIP magic number, first two bytes of any gzip stream.
const (
	gzipMagic0 = 0x1F
	gzipMagic1 = 0x8B
)

// Compress gzip-encodes b. Empty input is returned as given. On failure the
// caller is expected to fall back to the uncompressed payload.
func Compress(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return b, nil
	}
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(b); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress is the inverse of Compress. Malformed input yields an error,
// never a panic.
func Decompress(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return b, nil
	}
	gr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	out, err := io.ReadAll(gr)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IsCompressed reports whether b starts with the gzip magic number.
// Inputs shorter than two bytes are never compressed.
func IsCompressed(b []byte) bool {
	return len(b) >= 2 && b[0] == gzipMagic0 && b[1] == gzipMagic1
}
