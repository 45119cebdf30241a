package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize caps a single frame payload. Anything larger is rejected on
// both ends instead of being shipped whole.
const MaxFrameSize = 50 << 20 // 52,428,800 bytes

const headerSize = 8

var (
	ErrFrameTooLarge = errors.New("wire: frame exceeds max size")
	ErrShortWrite    = errors.New("wire: short frame write")
)

// EncodePayload compresses b for the wire. When compression fails the raw
// bytes are sent instead; the receiver detects the difference via
// IsCompressed.
func EncodePayload(b []byte) []byte {
	c, err := Compress(b)
	if err != nil {
		return b
	}
	return c
}

// DecodePayload undoes EncodePayload, decompressing only when the payload
// carries the gzip magic.
func DecodePayload(b []byte) ([]byte, error) {
	if !IsCompressed(b) {
		return b, nil
	}
	return Decompress(b)
}

// WriteFrame writes one frame: an 8-byte little-endian length followed by
// the payload, in a single Write call so no other writer can interleave.
// A partial write is fatal for the connection and is surfaced as
// ErrShortWrite.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	buf := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint64(buf, uint64(len(payload)))
	copy(buf[headerSize:], payload)
	n, err := w.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return ErrShortWrite
	}
	return nil
}

// ReadFrame reads one frame payload. Oversize length headers are rejected
// before any allocation.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint64(hdr[:])
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
