// Package josecipher implements the low-level cryptographic primitives
// behind the JWS and JWE algorithm families: HMAC and digital signature
// adapters, AES Key Wrap, the AES_CBC_HMAC_SHA2 composite AEAD, AES-GCM
// construction, ECDH-ES key agreement, and the Concat KDF.
//
// Every function takes its key material as explicit arguments and holds
// no state, so all operations are safe for concurrent use.
package josecipher

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"hash"
)

// NonceSizeCBCHMAC is the IV size shared by all AES_CBC_HMAC_SHA2
// algorithms, one AES block.
const NonceSizeCBCHMAC = 16

// NewCBCHMAC returns an AEAD implementing the AES_CBC_HMAC_SHA2 family
// of composite algorithms. The key is the concatenation of the MAC key
// (leading half) and the encryption key (trailing half): 32 bytes for
// A128CBC-HS256, 48 bytes for A192CBC-HS384, and 64 bytes for
// A256CBC-HS512. The authentication tag is truncated to half the HMAC
// output, the same length as each key half.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-5.2
func NewCBCHMAC(key []byte, newBlockCipher func(key []byte) (cipher.Block, error)) (cipher.AEAD, error) {
	var newHash func() hash.Hash
	switch len(key) {
	case 32:
		newHash = sha256.New
	case 48:
		newHash = sha512.New384
	case 64:
		newHash = sha512.New
	default:
		return nil, fmt.Errorf("cipher: invalid CBC-HMAC key size %d", len(key))
	}

	keyBytes := len(key) / 2

	block, err := newBlockCipher(key[keyBytes:])
	if err != nil {
		return nil, err
	}

	return &cbcAEAD{
		macKey:   key[:keyBytes],
		tagBytes: keyBytes,
		block:    block,
		newHash:  newHash,
	}, nil
}

type cbcAEAD struct {
	macKey   []byte
	tagBytes int
	block    cipher.Block
	newHash  func() hash.Hash
}

func (c *cbcAEAD) NonceSize() int {
	return NonceSizeCBCHMAC
}

func (c *cbcAEAD) Overhead() int {
	return c.block.BlockSize() + c.tagBytes
}

// Seal encrypts and authenticates plaintext, appending the ciphertext
// followed by the truncated authentication tag to dst. The nonce must
// be NonceSizeCBCHMAC bytes.
func (c *cbcAEAD) Seal(dst, nonce, plaintext, additionalData []byte) []byte {
	padded := padPKCS7(plaintext, c.block.BlockSize())

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, nonce).CryptBlocks(ciphertext, padded)

	tag := c.computeAuthTag(additionalData, nonce, ciphertext)

	out := append(dst, ciphertext...)
	return append(out, tag...)
}

// Open verifies the authentication tag in constant time before any
// decryption is attempted, then decrypts and strips the padding.
func (c *cbcAEAD) Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error) {
	if len(nonce) != NonceSizeCBCHMAC {
		return nil, fmt.Errorf("cipher: invalid CBC-HMAC nonce size %d", len(nonce))
	}

	if len(ciphertext) < c.tagBytes {
		return nil, fmt.Errorf("cipher: message too short")
	}

	offset := len(ciphertext) - c.tagBytes

	expected := c.computeAuthTag(additionalData, nonce, ciphertext[:offset])
	if subtle.ConstantTimeCompare(expected, ciphertext[offset:]) != 1 {
		return nil, fmt.Errorf("cipher: message authentication failed")
	}

	if offset == 0 || offset%c.block.BlockSize() != 0 {
		return nil, fmt.Errorf("cipher: invalid ciphertext size %d", offset)
	}

	buffer := make([]byte, offset)
	cipher.NewCBCDecrypter(c.block, nonce).CryptBlocks(buffer, ciphertext[:offset])

	plaintext, err := unpadPKCS7(buffer, c.block.BlockSize())
	if err != nil {
		return nil, err
	}

	return append(dst, plaintext...), nil
}

// computeAuthTag computes HMAC(macKey, AAD || IV || ciphertext || AL),
// where AL is the length of the additional data in bits as a 64-bit
// big-endian integer, and truncates the result to half the HMAC output.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-5.2.2.1
func (c *cbcAEAD) computeAuthTag(additionalData, nonce, ciphertext []byte) []byte {
	al := make([]byte, 8)
	binary.BigEndian.PutUint64(al, uint64(len(additionalData))*8)

	h := hmac.New(c.newHash, c.macKey)
	h.Write(additionalData)
	h.Write(nonce)
	h.Write(ciphertext)
	h.Write(al)

	return h.Sum(nil)[:c.tagBytes]
}

func padPKCS7(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize

	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}

	return padded
}

func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("cipher: invalid padded size %d", len(data))
	}

	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, fmt.Errorf("cipher: invalid padding")
	}

	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("cipher: invalid padding")
		}
	}

	return data[:len(data)-padding], nil
}
