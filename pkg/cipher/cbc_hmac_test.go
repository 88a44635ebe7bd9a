package josecipher_test

import (
	"crypto/aes"
	"crypto/rand"
	"testing"

	josecipher "github.com/modscleo4/jose/pkg/cipher"
	"github.com/stretchr/testify/require"
)

// Test vectors from RFC 7518 appendix B: the same plaintext, IV, and
// additional data under each of the three composite algorithms.
func TestCBCHMACRFC7518Vectors(t *testing.T) {
	plaintext := []byte("A cipher system must not be required to be secret, and it must be able to fall into the hands of the enemy without inconvenience")
	iv := "1af38c2dc2b96ffdd86694092341bc04"
	aad := []byte("The second principle of Auguste Kerckhoffs")

	tests := []struct {
		name       string
		keySize    int
		ciphertext string
		tag        string
	}{
		{
			name:    "AES_128_CBC_HMAC_SHA_256",
			keySize: 32,
			ciphertext: "c80edfa32ddf39d5ef00c0b468834279a2e46a1b8049f792f76bfe54b903a9c9" +
				"a94ac9b47ad2655c5f10f9aef71427e2fc6f9b3f399a221489f16362c7032336" +
				"09d45ac69864e3321cf82935ac4096c86e133314c54019e8ca7980dfa4b9cf1b" +
				"384c486f3a54c51078158ee5d79de59fbd34d848b3d69550a67646344427ade5" +
				"4b8851ffb598f7f80074b9473c82e2db",
			tag: "652c3fa36b0a7c5b3219fab3a30bc1c4",
		},
		{
			name:    "AES_192_CBC_HMAC_SHA_384",
			keySize: 48,
			ciphertext: "ea65da6b59e61edb419be62d19712ae5d303eeb50052d0dfd6697f77224c8edb" +
				"000d279bdc14c1072654bd30944230c657bed4ca0c9f4a8466f22b226d174621" +
				"4bf8cfc2400add9f5126e479663fc90b3bed787a2f0ffcbf3904be2a641d5c21" +
				"05bfe591bae23b1d7449e532eef60a9ac8bb6c6b01d35d49787bcd57ef484927" +
				"f280adc91ac0c4e79c7b11efc60054e3",
			tag: "8490ac0e58949bfe51875d733f93ac2075168039ccc733d7",
		},
		{
			name:    "AES_256_CBC_HMAC_SHA_512",
			keySize: 64,
			ciphertext: "4affaaadb78c31c5da4b1b590d10ffbd3dd8d5d302423526912da037ecbcc7bd" +
				"822c301dd67c373bccb584ad3e9279c2e6d12a1374b77f077553df829410446b" +
				"36ebd97066296ae6427ea75c2e0846a11a09ccf5370dc80bfecbad28c73f09b3" +
				"a3b75e662a2594410ae496b2e2e6609e31e6e02cc837f053d21f37ff4f51950b" +
				"be2638d09dd7a4930930806d0703b1f6",
			tag: "4dd3b4c088a7f45c216839645b2012bf2e6269a8c56a816dbc1b267761955bc5",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			key := make([]byte, test.keySize)
			for i := range key {
				key[i] = byte(i)
			}

			aead, err := josecipher.NewCBCHMAC(key, aes.NewCipher)
			require.NoError(t, err)
			require.Equal(t, josecipher.NonceSizeCBCHMAC, aead.NonceSize())

			expected := append(mustHex(t, test.ciphertext), mustHex(t, test.tag)...)

			sealed := aead.Seal(nil, mustHex(t, iv), plaintext, aad)
			require.Equal(t, expected, sealed)

			opened, err := aead.Open(nil, mustHex(t, iv), sealed, aad)
			require.NoError(t, err)
			require.Equal(t, plaintext, opened)
		})
	}
}

func TestCBCHMACRoundTrip(t *testing.T) {
	for _, keySize := range []int{32, 48, 64} {
		for _, plaintextSize := range []int{0, 1, 15, 16, 17, 1024} {
			key := make([]byte, keySize)
			_, err := rand.Read(key)
			require.NoError(t, err)

			aead, err := josecipher.NewCBCHMAC(key, aes.NewCipher)
			require.NoError(t, err)

			nonce := make([]byte, aead.NonceSize())
			_, err = rand.Read(nonce)
			require.NoError(t, err)

			plaintext := make([]byte, plaintextSize)
			_, err = rand.Read(plaintext)
			require.NoError(t, err)

			aad := []byte("additional data")

			sealed := aead.Seal(nil, nonce, plaintext, aad)
			require.LessOrEqual(t, len(sealed), len(plaintext)+aead.Overhead())

			opened, err := aead.Open(nil, nonce, sealed, aad)
			require.NoError(t, err)
			require.Equal(t, plaintext, opened)
		}
	}
}

func TestCBCHMACDetectsTampering(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	aead, err := josecipher.NewCBCHMAC(key, aes.NewCipher)
	require.NoError(t, err)

	nonce := make([]byte, aead.NonceSize())
	_, err = rand.Read(nonce)
	require.NoError(t, err)

	sealed := aead.Seal(nil, nonce, []byte("attack at dawn"), []byte("aad"))

	for i := range sealed {
		tampered := make([]byte, len(sealed))
		copy(tampered, sealed)
		tampered[i] ^= 0x01

		_, err = aead.Open(nil, nonce, tampered, []byte("aad"))
		require.ErrorContains(t, err, "message authentication failed")
	}

	_, err = aead.Open(nil, nonce, sealed, []byte("different aad"))
	require.ErrorContains(t, err, "message authentication failed")
}

func TestCBCHMACInvalidInputs(t *testing.T) {
	_, err := josecipher.NewCBCHMAC(make([]byte, 33), aes.NewCipher)
	require.ErrorContains(t, err, "invalid CBC-HMAC key size")

	aead, err := josecipher.NewCBCHMAC(make([]byte, 32), aes.NewCipher)
	require.NoError(t, err)

	_, err = aead.Open(nil, make([]byte, 12), make([]byte, 32), nil)
	require.ErrorContains(t, err, "invalid CBC-HMAC nonce size")

	_, err = aead.Open(nil, make([]byte, 16), make([]byte, 8), nil)
	require.ErrorContains(t, err, "message too short")
}
