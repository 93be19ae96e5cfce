// Package hexutil provides the fixed-width hex codecs used for key material.
package hexutil

import (
	"encoding/hex"
	"fmt"
)

// DecodeFixed decodes s as exactly n bytes of hex. Case-insensitive; any
// other length or a non-hex digit is an error.
func DecodeFixed(s string, n int) ([]byte, error) {
	if len(s) != n*2 {
		return nil, fmt.Errorf("expected %d hex digits, got %d", n*2, len(s))
	}
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string: %w", err)
	}
	return out, nil
}

// Encode returns the lowercase hex encoding of b.
func Encode(b []byte) string {
	return hex.EncodeToString(b)
}
