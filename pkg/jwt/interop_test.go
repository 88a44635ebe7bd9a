package jwt_test

import (
	"testing"
	"time"

	"github.com/modscleo4/jose/pkg/header"
	"github.com/modscleo4/jose/pkg/jwa"
	"github.com/modscleo4/jose/pkg/jwt"
	"github.com/modscleo4/jose/pkg/keyutil"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Tokens produced here must verify under github.com/golang-jwt/jwt, and
// tokens produced by that library must parse and verify here.
func TestGolangJWTInterop(t *testing.T) {
	expires := time.Now().Add(time.Hour)

	newToken := func(t *testing.T, alg jwa.Algorithm, key any) *jwt.Token {
		t.Helper()

		token, err := jwt.New(header.Parameters{
			header.Type:      jwt.Type,
			header.Algorithm: alg,
		}, jwt.ClaimsSet{
			jwt.Subject:        "interop",
			jwt.ExpirationTime: expires,
		}, key)
		require.NoError(t, err)

		return token
	}

	verifyWithGolangJWT := func(t *testing.T, token *jwt.Token, method string, key any) {
		t.Helper()

		parsed, err := gojwt.Parse(token.String(), func(*gojwt.Token) (any, error) {
			return key, nil
		}, gojwt.WithValidMethods([]string{method}))
		require.NoError(t, err)
		require.True(t, parsed.Valid)

		claims, ok := parsed.Claims.(gojwt.MapClaims)
		require.True(t, ok)
		require.Equal(t, "interop", claims["sub"])
	}

	verifyParsedToken := func(t *testing.T, signed string, key any) {
		t.Helper()

		token, err := jwt.ParseString(signed)
		require.NoError(t, err)

		require.NoError(t, token.Verify(jwt.WithKeys(key)))
		require.Equal(t, "interop", token.Claims[jwt.Subject])
	}

	t.Run("HS256", func(t *testing.T) {
		key, err := keyutil.NewSymmetricKey(32)
		require.NoError(t, err)

		verifyWithGolangJWT(t, newToken(t, jwa.HS256, key), "HS256", key)

		signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
			"sub": "interop",
			"exp": expires.Unix(),
		}).SignedString(key)
		require.NoError(t, err)
		verifyParsedToken(t, signed, key)
	})

	t.Run("RS256", func(t *testing.T) {
		pair := testNewKeyPair(t, keyutil.NewRSAKeyPair)

		verifyWithGolangJWT(t, newToken(t, jwa.RS256, pair.private), "RS256", pair.public)

		signed, err := gojwt.NewWithClaims(gojwt.SigningMethodRS256, gojwt.MapClaims{
			"sub": "interop",
			"exp": expires.Unix(),
		}).SignedString(pair.private)
		require.NoError(t, err)
		verifyParsedToken(t, signed, pair.public)
	})

	t.Run("ES256", func(t *testing.T) {
		pair := testNewKeyPair(t, keyutil.NewECDSAKeyPair)

		verifyWithGolangJWT(t, newToken(t, jwa.ES256, pair.private), "ES256", pair.public)

		signed, err := gojwt.NewWithClaims(gojwt.SigningMethodES256, gojwt.MapClaims{
			"sub": "interop",
			"exp": expires.Unix(),
		}).SignedString(pair.private)
		require.NoError(t, err)
		verifyParsedToken(t, signed, pair.public)
	})

	t.Run("EdDSA", func(t *testing.T) {
		pair := testNewKeyPair(t, keyutil.NewEdDSAKeyPair)

		verifyWithGolangJWT(t, newToken(t, jwa.EdDSA, pair.private), "EdDSA", pair.public)

		signed, err := gojwt.NewWithClaims(gojwt.SigningMethodEdDSA, gojwt.MapClaims{
			"sub": "interop",
			"exp": expires.Unix(),
		}).SignedString(pair.private)
		require.NoError(t, err)
		verifyParsedToken(t, signed, pair.public)
	})
}
