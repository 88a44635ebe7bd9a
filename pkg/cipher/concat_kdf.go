package josecipher

import (
	"crypto"
	"encoding/binary"
)

// DeriveConcatKDF derives size bytes of key material from the shared
// secret z using the Concatenation Key Derivation Function from NIST
// SP 800-56A, section 5.8.1: the digests of a running 32-bit big-endian
// counter, z, and otherInfo are concatenated until enough bytes have
// been produced.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.6.2
func DeriveConcatKDF(hash crypto.Hash, z, otherInfo []byte, size int) []byte {
	key := make([]byte, 0, size)

	counter := make([]byte, 4)
	for round := uint32(1); len(key) < size; round++ {
		binary.BigEndian.PutUint32(counter, round)

		h := hash.New()
		h.Write(counter)
		h.Write(z)
		h.Write(otherInfo)
		key = h.Sum(key)
	}

	return key[:size]
}

// ConcatKDFOtherInfo assembles the OtherInfo input for DeriveConcatKDF:
// AlgorithmID, PartyUInfo, and PartyVInfo, each prefixed with its
// 32-bit big-endian length, followed by SuppPubInfo, the derived key
// length in bits as a 32-bit big-endian integer. The apu and apv
// values are the raw party identities, not their base64url encodings.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.6.2
func ConcatKDFOtherInfo(algID string, apu, apv []byte, keyBits int) []byte {
	buf := make([]byte, 0, 16+len(algID)+len(apu)+len(apv))
	buf = appendLengthPrefixed(buf, []byte(algID))
	buf = appendLengthPrefixed(buf, apu)
	buf = appendLengthPrefixed(buf, apv)

	return binary.BigEndian.AppendUint32(buf, uint32(keyBits))
}

func appendLengthPrefixed(buf, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}
