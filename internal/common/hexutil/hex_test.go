package hexutil

import (
	"bytes"
	"testing"
)

func TestDecodeFixed(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		width       int
		expectError bool
		want        []byte
	}{
		{"16-byte key", "000102030405060708090a0b0c0d0e0f", 16, false,
			[]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
		{"uppercase accepted", "DEADBEEFDEADBEEFDEADBEEFDEADBEEF", 16, false, nil},
		{"too short", "00112233", 16, true, nil},
		{"too long", "000102030405060708090a0b0c0d0e0f00", 16, true, nil},
		{"non-hex digit", "zz0102030405060708090a0b0c0d0e0f", 16, true, nil},
		{"empty", "", 16, true, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeFixed(tc.input, tc.width)

			if tc.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(got) != tc.width {
				t.Errorf("Expected %d bytes, got %d", tc.width, len(got))
			}
			if tc.want != nil && !bytes.Equal(got, tc.want) {
				t.Errorf("DecodeFixed = %x, want %x", got, tc.want)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	in := []byte{0xde, 0xad, 0xbe, 0xef, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 0xa, 0xb}
	s := Encode(in)
	if s != "deadbeef000102030405060708090a0b" {
		t.Errorf("Encode = %q", s)
	}
	out, err := DecodeFixed(s, len(in))
	if err != nil {
		t.Fatalf("DecodeFixed failed: %v", err)
	}
	if !bytes.Equal(in, out) {
		t.Error("Round trip does not match original")
	}
}
