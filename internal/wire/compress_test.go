package wire

import (
	"bytes"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	inputs := [][]byte{
		[]byte("hello inspector"),
		[]byte(`{"id":"x","messageType":"traffic"}`),
		bytes.Repeat([]byte{0x00, 0xFF, 0x7F}, 4096),
	}
	for _, in := range inputs {
		c, err := Compress(in)
		if err != nil {
			t.Fatalf("compress: %v", err)
		}
		if !IsCompressed(c) {
			t.Fatalf("compressed output missing gzip magic: % x", c[:2])
		}
		out, err := Decompress(c)
		if err != nil {
			t.Fatalf("decompress: %v", err)
		}
		if !bytes.Equal(out, in) {
			t.Fatalf("round trip mismatch: got %d bytes, want %d", len(out), len(in))
		}
	}
}

func TestCompressEmptyInputPassesThrough(t *testing.T) {
	out, err := Compress(nil)
	if err != nil {
		t.Fatalf("compress(nil): %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d bytes", len(out))
	}
	if IsCompressed(out) {
		t.Fatalf("empty output must not look compressed")
	}
}

func TestDecompressMalformed(t *testing.T) {
	if _, err := Decompress([]byte{0x1F, 0x8B, 0x00, 0x01}); err == nil {
		t.Fatalf("expected error for truncated gzip stream")
	}
	if _, err := Decompress([]byte("plain text")); err == nil {
		t.Fatalf("expected error for non-gzip input")
	}
}

func TestIsCompressed(t *testing.T) {
	cases := []struct {
		in   []byte
		want bool
	}{
		{nil, false},
		{[]byte{0x1F}, false},
		{[]byte{0x1F, 0x8B}, true},
		{[]byte{0x1F, 0x8B, 0x08}, true},
		{[]byte{0x8B, 0x1F}, false},
		{[]byte("no"), false},
	}
	for _, c := range cases {
		if got := IsCompressed(c.in); got != c.want {
			t.Fatalf("IsCompressed(% x) = %v, want %v", c.in, got, c.want)
		}
	}
}
