package jws_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/modscleo4/jose/pkg/header"
	"github.com/modscleo4/jose/pkg/jwa"
	"github.com/modscleo4/jose/pkg/jws"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/require"
)

// Signatures produced here must verify under github.com/go-jose/go-jose,
// and signatures produced by that library must parse and verify here.
func TestGoJOSEInterop(t *testing.T) {
	payload := []byte(`{"message":"interop"}`)

	verifyWithGoJOSE := func(t *testing.T, signature *jws.Signature, alg jose.SignatureAlgorithm, key any) {
		t.Helper()

		parsed, err := jose.ParseSigned(signature.String(), []jose.SignatureAlgorithm{alg})
		require.NoError(t, err)

		verified, err := parsed.Verify(key)
		require.NoError(t, err)
		require.Equal(t, payload, verified)
	}

	verifyParsedSignature := func(t *testing.T, alg jwa.Algorithm, signingKey, verificationKey any) {
		t.Helper()

		signer, err := jose.NewSigner(jose.SigningKey{
			Algorithm: jose.SignatureAlgorithm(alg),
			Key:       signingKey,
		}, nil)
		require.NoError(t, err)

		object, err := signer.Sign(payload)
		require.NoError(t, err)

		compact, err := object.CompactSerialize()
		require.NoError(t, err)

		signature, err := jws.Parse(compact)
		require.NoError(t, err)
		require.Equal(t, payload, signature.Payload)

		require.NoError(t, signature.Verify(verificationKey, jws.WithExpectedAlgorithms(alg)))
	}

	t.Run("HS256", func(t *testing.T) {
		key := make([]byte, 32)
		_, err := rand.Read(key)
		require.NoError(t, err)

		signature, err := jws.New(jws.Header{header.Algorithm: jwa.HS256}, payload, key)
		require.NoError(t, err)
		verifyWithGoJOSE(t, signature, jose.HS256, key)

		verifyParsedSignature(t, jwa.HS256, key, key)
	})

	t.Run("RS256", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		signature, err := jws.New(jws.Header{header.Algorithm: jwa.RS256}, payload, key)
		require.NoError(t, err)
		verifyWithGoJOSE(t, signature, jose.RS256, &key.PublicKey)

		verifyParsedSignature(t, jwa.RS256, key, &key.PublicKey)
	})

	t.Run("PS256", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		signature, err := jws.New(jws.Header{header.Algorithm: jwa.PS256}, payload, key)
		require.NoError(t, err)
		verifyWithGoJOSE(t, signature, jose.PS256, &key.PublicKey)

		verifyParsedSignature(t, jwa.PS256, key, &key.PublicKey)
	})

	t.Run("ES256", func(t *testing.T) {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)

		signature, err := jws.New(jws.Header{header.Algorithm: jwa.ES256}, payload, key)
		require.NoError(t, err)
		verifyWithGoJOSE(t, signature, jose.ES256, &key.PublicKey)

		verifyParsedSignature(t, jwa.ES256, key, &key.PublicKey)
	})

	t.Run("EdDSA", func(t *testing.T) {
		public, private, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		signature, err := jws.New(jws.Header{header.Algorithm: jwa.EdDSA}, payload, private)
		require.NoError(t, err)
		verifyWithGoJOSE(t, signature, jose.EdDSA, public)

		verifyParsedSignature(t, jwa.EdDSA, private, public)
	})
}
