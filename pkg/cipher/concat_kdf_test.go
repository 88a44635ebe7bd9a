package josecipher_test

import (
	"crypto"
	"testing"

	josecipher "github.com/modscleo4/jose/pkg/cipher"
	"github.com/stretchr/testify/require"
)

// Shared secret Z from RFC 7518 appendix C.
var appendixCSecret = []byte{
	158, 86, 217, 29, 129, 113, 53, 211, 114, 131, 66, 131, 191, 132,
	38, 156, 251, 49, 110, 163, 218, 128, 106, 72, 246, 218, 167, 121,
	140, 254, 144, 196,
}

func TestConcatKDFOtherInfo(t *testing.T) {
	otherInfo := josecipher.ConcatKDFOtherInfo("A128GCM", []byte("Alice"), []byte("Bob"), 128)

	require.Equal(t, []byte{
		0, 0, 0, 7, 65, 49, 50, 56, 71, 67, 77,
		0, 0, 0, 5, 65, 108, 105, 99, 101,
		0, 0, 0, 3, 66, 111, 98,
		0, 0, 0, 128,
	}, otherInfo)
}

func TestConcatKDFOtherInfoEmptyParties(t *testing.T) {
	otherInfo := josecipher.ConcatKDFOtherInfo("A128KW", nil, nil, 128)

	require.Equal(t, []byte{
		0, 0, 0, 6, 65, 49, 50, 56, 75, 87,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 128,
	}, otherInfo)
}

// Test vector from RFC 7518 appendix C.
func TestDeriveConcatKDFRFC7518Vector(t *testing.T) {
	otherInfo := josecipher.ConcatKDFOtherInfo("A128GCM", []byte("Alice"), []byte("Bob"), 128)

	derived := josecipher.DeriveConcatKDF(crypto.SHA256, appendixCSecret, otherInfo, 16)

	require.Equal(t, []byte{
		86, 170, 141, 234, 248, 35, 109, 32, 92, 34, 40, 205, 113, 167, 16, 26,
	}, derived)
}

func TestDeriveConcatKDFDeterministic(t *testing.T) {
	otherInfo := josecipher.ConcatKDFOtherInfo("A256GCM", []byte("Alice"), []byte("Bob"), 256)

	first := josecipher.DeriveConcatKDF(crypto.SHA256, appendixCSecret, otherInfo, 32)
	second := josecipher.DeriveConcatKDF(crypto.SHA256, appendixCSecret, otherInfo, 32)
	require.Equal(t, first, second)
}

func TestDeriveConcatKDFInputsChangeOutput(t *testing.T) {
	base := josecipher.DeriveConcatKDF(crypto.SHA256, appendixCSecret,
		josecipher.ConcatKDFOtherInfo("A128GCM", []byte("Alice"), []byte("Bob"), 128), 16)

	differentAlg := josecipher.DeriveConcatKDF(crypto.SHA256, appendixCSecret,
		josecipher.ConcatKDFOtherInfo("A128KW", []byte("Alice"), []byte("Bob"), 128), 16)
	require.NotEqual(t, base, differentAlg)

	differentAPU := josecipher.DeriveConcatKDF(crypto.SHA256, appendixCSecret,
		josecipher.ConcatKDFOtherInfo("A128GCM", []byte("Eve"), []byte("Bob"), 128), 16)
	require.NotEqual(t, base, differentAPU)

	differentAPV := josecipher.DeriveConcatKDF(crypto.SHA256, appendixCSecret,
		josecipher.ConcatKDFOtherInfo("A128GCM", []byte("Alice"), []byte("Mallory"), 128), 16)
	require.NotEqual(t, base, differentAPV)
}

// A derivation longer than one digest runs the counter over multiple
// rounds; the leading bytes must be stable across output sizes.
func TestDeriveConcatKDFMultipleRounds(t *testing.T) {
	otherInfo := josecipher.ConcatKDFOtherInfo("A256CBC-HS512", nil, nil, 512)

	short := josecipher.DeriveConcatKDF(crypto.SHA256, appendixCSecret, otherInfo, 16)
	long := josecipher.DeriveConcatKDF(crypto.SHA256, appendixCSecret, otherInfo, 64)

	require.Len(t, long, 64)
	require.Equal(t, short, long[:16])
}
