package josecipher

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// NonceSizeGCM is the IV size used by the AES GCM content encryption
// and key wrapping algorithms.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-5.3
const NonceSizeGCM = 12

// TagSizeGCM is the full authentication tag size used by the AES GCM
// content encryption and key wrapping algorithms.
const TagSizeGCM = 16

// NewGCM returns an AES-GCM AEAD over the given key with the given tag
// size. The key must be 16, 24, or 32 bytes.
func NewGCM(key []byte, tagSize int) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithTagSize(block, tagSize)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}

	return aead, nil
}
