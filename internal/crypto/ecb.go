// Package crypto wraps the AES block cipher in the ECB transcode primitive
// the console's key hierarchy is built on. ECB is used here strictly as a
// key unwrap step on 16-byte buffers, never for bulk data confidentiality.
package crypto

import (
	"crypto/aes"
	"errors"
)

var (
	// ErrKeySize is returned for keys that are not 16, 24 or 32 bytes.
	ErrKeySize = errors.New("invalid AES key size")

	// ErrBlockAlignment is returned when the data is not a whole number of
	// AES blocks.
	ErrBlockAlignment = errors.New("data is not block aligned")
)

// DecryptECB decrypts src block by block under key and returns the result.
// src must be a multiple of 16 bytes; it is not modified.
func DecryptECB(key, src []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrKeySize
	}
	if len(src)%aes.BlockSize != 0 {
		return nil, ErrBlockAlignment
	}

	out := make([]byte, len(src))
	for i := 0; i < len(src); i += aes.BlockSize {
		block.Decrypt(out[i:i+aes.BlockSize], src[i:i+aes.BlockSize])
	}
	return out, nil
}

// EncryptECB is the inverse of DecryptECB, used to build wrapped test
// material and by tooling that re-wraps keys.
func EncryptECB(key, src []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrKeySize
	}
	if len(src)%aes.BlockSize != 0 {
		return nil, ErrBlockAlignment
	}

	out := make([]byte, len(src))
	for i := 0; i < len(src); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], src[i:i+aes.BlockSize])
	}
	return out, nil
}
