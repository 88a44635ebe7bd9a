package josecipher

import (
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
)

// defaultIV is the initial value for AES Key Wrap integrity checking.
//
// https://datatracker.ietf.org/doc/html/rfc3394#section-2.2.3.1
var defaultIV = []byte{0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6}

// KeyWrap wraps cek under the given AES block cipher using the AES Key
// Wrap algorithm. The input must be a multiple of 8 bytes and at least
// 16 bytes long; the output is always 8 bytes longer than the input.
//
// https://datatracker.ietf.org/doc/html/rfc3394#section-2.2.1
func KeyWrap(block cipher.Block, cek []byte) ([]byte, error) {
	if len(cek)%8 != 0 {
		return nil, fmt.Errorf("cipher: key wrap input must be a multiple of 8 bytes")
	}

	if len(cek) < 16 {
		return nil, fmt.Errorf("cipher: key wrap input must be at least 16 bytes")
	}

	n := len(cek) / 8

	r := make([][]byte, n)
	for i := range r {
		r[i] = make([]byte, 8)
		copy(r[i], cek[i*8:])
	}

	buffer := make([]byte, 16)
	tBytes := make([]byte, 8)

	a := make([]byte, 8)
	copy(a, defaultIV)

	for t := 0; t < 6*n; t++ {
		copy(buffer, a)
		copy(buffer[8:], r[t%n])

		block.Encrypt(buffer, buffer)

		binary.BigEndian.PutUint64(tBytes, uint64(t)+1)

		for i := range a {
			a[i] = buffer[i] ^ tBytes[i]
		}
		copy(r[t%n], buffer[8:])
	}

	out := make([]byte, (n+1)*8)
	copy(out, a)
	for i := range r {
		copy(out[(i+1)*8:], r[i])
	}

	return out, nil
}

// KeyUnwrap reverses KeyWrap, comparing the recovered integrity check
// value in constant time.
//
// https://datatracker.ietf.org/doc/html/rfc3394#section-2.2.2
func KeyUnwrap(block cipher.Block, wrapped []byte) ([]byte, error) {
	if len(wrapped)%8 != 0 {
		return nil, fmt.Errorf("cipher: key unwrap input must be a multiple of 8 bytes")
	}

	if len(wrapped) < 24 {
		return nil, fmt.Errorf("cipher: key unwrap input must be at least 24 bytes")
	}

	n := len(wrapped)/8 - 1

	r := make([][]byte, n)
	for i := range r {
		r[i] = make([]byte, 8)
		copy(r[i], wrapped[(i+1)*8:])
	}

	buffer := make([]byte, 16)
	tBytes := make([]byte, 8)

	a := make([]byte, 8)
	copy(a, wrapped[:8])

	for t := 6*n - 1; t >= 0; t-- {
		binary.BigEndian.PutUint64(tBytes, uint64(t)+1)

		for i := range a {
			buffer[i] = a[i] ^ tBytes[i]
		}
		copy(buffer[8:], r[t%n])

		block.Decrypt(buffer, buffer)

		copy(a, buffer[:8])
		copy(r[t%n], buffer[8:])
	}

	if subtle.ConstantTimeCompare(a, defaultIV) != 1 {
		return nil, fmt.Errorf("cipher: failed to unwrap key")
	}

	out := make([]byte, n*8)
	for i := range r {
		copy(out[i*8:], r[i])
	}

	return out, nil
}
