package josecipher_test

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/modscleo4/jose/pkg/base64"
	josecipher "github.com/modscleo4/jose/pkg/cipher"
	"github.com/stretchr/testify/require"
)

// Test vector from RFC 7515 appendix A.1.
func TestSignHMACRFC7515Vector(t *testing.T) {
	key, err := base64.Decode("AyM1SysPpbyDfgZld3umj1qzKObwVMkoqQ-EstJQLr_T-1qS0gZH75aKtMN3Yj0iPS4hcgUuTwjAzZr1Z9CAow")
	require.NoError(t, err)

	data := []byte("eyJ0eXAiOiJKV1QiLA0KICJhbGciOiJIUzI1NiJ9" +
		"." +
		"eyJpc3MiOiJqb2UiLA0KICJleHAiOjEzMDA4MTkzODAsDQogImh0dHA6Ly9leGFt" +
		"cGxlLmNvbS9pc19yb290Ijp0cnVlfQ")

	tag := josecipher.SignHMAC(crypto.SHA256, key, data)
	require.Equal(t, "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk", base64.Encode(tag))

	require.True(t, josecipher.VerifyHMAC(crypto.SHA256, key, data, tag))
	require.False(t, josecipher.VerifyHMAC(crypto.SHA256, key, data, tag[:len(tag)-1]))
	require.False(t, josecipher.VerifyHMAC(crypto.SHA256, []byte("other key"), data, tag))
	require.False(t, josecipher.VerifyHMAC(crypto.SHA384, key, data, tag))
}

func TestSignVerifyHMAC(t *testing.T) {
	key := make([]byte, 64)
	_, err := rand.Read(key)
	require.NoError(t, err)

	for _, hash := range []crypto.Hash{crypto.SHA256, crypto.SHA384, crypto.SHA512} {
		tag := josecipher.SignHMAC(hash, key, []byte("signing input"))
		require.Len(t, tag, hash.Size())
		require.True(t, josecipher.VerifyHMAC(hash, key, []byte("signing input"), tag))
		require.False(t, josecipher.VerifyHMAC(hash, key, []byte("tampered input"), tag))
	}
}

func TestSignVerifyRSAPKCS1v15(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	for _, hash := range []crypto.Hash{crypto.SHA256, crypto.SHA384, crypto.SHA512} {
		signature, err := josecipher.SignRSAPKCS1v15(hash, key, []byte("signing input"))
		require.NoError(t, err)
		require.Len(t, signature, 256)

		require.True(t, josecipher.VerifyRSAPKCS1v15(hash, &key.PublicKey, []byte("signing input"), signature))
		require.False(t, josecipher.VerifyRSAPKCS1v15(hash, &key.PublicKey, []byte("tampered input"), signature))

		signature[0] ^= 0x01
		require.False(t, josecipher.VerifyRSAPKCS1v15(hash, &key.PublicKey, []byte("signing input"), signature))
	}
}

func TestSignVerifyRSAPSS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	for _, hash := range []crypto.Hash{crypto.SHA256, crypto.SHA384, crypto.SHA512} {
		signature, err := josecipher.SignRSAPSS(hash, key, []byte("signing input"))
		require.NoError(t, err)

		require.True(t, josecipher.VerifyRSAPSS(hash, &key.PublicKey, []byte("signing input"), signature))
		require.False(t, josecipher.VerifyRSAPSS(hash, &key.PublicKey, []byte("tampered input"), signature))

		// PSS is randomized, so two signatures over the same input differ
		// but both verify.
		second, err := josecipher.SignRSAPSS(hash, key, []byte("signing input"))
		require.NoError(t, err)
		require.NotEqual(t, signature, second)
		require.True(t, josecipher.VerifyRSAPSS(hash, &key.PublicKey, []byte("signing input"), second))

		// A PSS signature must not verify under PKCS #1 v1.5.
		require.False(t, josecipher.VerifyRSAPKCS1v15(hash, &key.PublicKey, []byte("signing input"), signature))
	}
}

func TestSignVerifyECDSA(t *testing.T) {
	tests := []struct {
		name          string
		curve         elliptic.Curve
		hash          crypto.Hash
		signatureSize int
	}{
		{name: "P-256 with SHA-256", curve: elliptic.P256(), hash: crypto.SHA256, signatureSize: 64},
		{name: "P-384 with SHA-384", curve: elliptic.P384(), hash: crypto.SHA384, signatureSize: 96},
		{name: "P-521 with SHA-512", curve: elliptic.P521(), hash: crypto.SHA512, signatureSize: 132},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			key, err := ecdsa.GenerateKey(test.curve, rand.Reader)
			require.NoError(t, err)

			signature, err := josecipher.SignECDSA(test.hash, key, []byte("signing input"))
			require.NoError(t, err)
			require.Len(t, signature, test.signatureSize)

			require.True(t, josecipher.VerifyECDSA(test.hash, &key.PublicKey, []byte("signing input"), signature))
			require.False(t, josecipher.VerifyECDSA(test.hash, &key.PublicKey, []byte("tampered input"), signature))
			require.False(t, josecipher.VerifyECDSA(test.hash, &key.PublicKey, []byte("signing input"), signature[:len(signature)-1]))

			signature[0] ^= 0x01
			require.False(t, josecipher.VerifyECDSA(test.hash, &key.PublicKey, []byte("signing input"), signature))
		})
	}
}

func TestVerifyECDSARejectsWrongKey(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	signature, err := josecipher.SignECDSA(crypto.SHA256, key, []byte("signing input"))
	require.NoError(t, err)

	require.False(t, josecipher.VerifyECDSA(crypto.SHA256, &other.PublicKey, []byte("signing input"), signature))
}
