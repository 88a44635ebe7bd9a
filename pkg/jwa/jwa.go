package jwa

import (
	"golang.org/x/exp/slices"
)

// https://datatracker.ietf.org/doc/html/rfc7518#section-3.1
type Algorithm = string

// HMAC with SHA-2 Functions
//
// These algorithms are used to construct a MAC using a shared secret
// and the Hash-based Message Authentication Code (HMAC) construction
// [RFC2104] employing SHA-2 [SHS] hash functions.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.2
const (
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
)

// RSASSA-PKCS1-v1_5
//
// These algorithms are used to digitally sign a JWS and produce a
// JWS Signature using PKCS #1 v1.5 methods.
//
// # RSA Key Size
//
// A key of size 2048 bits or larger MUST be used with these algorithms.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.3
const (
	RS256 Algorithm = "RS256"
	RS384 Algorithm = "RS384"
	RS512 Algorithm = "RS512"
)

// ECDSA
//
// These algorithms are used to digitally sign a JWS and produce a
// JWS Signature using ECDSA algorithms.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.4
const (
	ES256 Algorithm = "ES256"
	ES384 Algorithm = "ES384"
	ES512 Algorithm = "ES512"
)

// RSASSA-PSS
//
// These algorithms are used to digitally sign a JWS and produce a
// JWS Signature using the RSASSA-PSS algorithms.
//
// # RSA Key Size
//
// A key of size 2048 bits or larger MUST be used with these algorithms.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.5
const (
	PS256 Algorithm = "PS256"
	PS384 Algorithm = "PS384"
	PS512 Algorithm = "PS512"
)

// No signature or MAC performed (unprotected JWS). This algorithm is
// intended to be used to create a JWS that is not integrity protected.
//
// # Warning
//
// The use of this algorithm is considered dangerous. Do NOT use this
// algorithm, it's only implemented for completeness.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.6
const None Algorithm = "none"

// I have no idea where these are documented, but other libraries implement them?
const (
	ES256K Algorithm = "ES256K"
	EdDSA  Algorithm = "EdDSA"
)

// RSAES-PKCS1-v1_5 and RSAES OAEP Key Encryption
//
// These algorithms are used to encrypt the Content Encryption Key (CEK)
// of a JWE with the recipient's RSA public key.
//
// # RSA Key Size
//
// A key of size 2048 bits or larger MUST be used with these algorithms.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.2
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.3
const (
	RSA1_5     Algorithm = "RSA1_5"
	RSAOAEP    Algorithm = "RSA-OAEP"
	RSAOAEP256 Algorithm = "RSA-OAEP-256"
)

// AES Key Wrap
//
// These algorithms wrap the CEK of a JWE with a shared symmetric key
// using the AES Key Wrap algorithm [RFC3394].
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.4
const (
	A128KW Algorithm = "A128KW"
	A192KW Algorithm = "A192KW"
	A256KW Algorithm = "A256KW"
)

// Direct Encryption with a Shared Symmetric Key
//
// The CEK of a JWE is the shared symmetric key itself, and the JWE
// encrypted key segment is empty.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.5
const Dir Algorithm = "dir"

// Key Agreement with Elliptic Curve Diffie-Hellman Ephemeral Static
//
// ECDH-ES derives the CEK of a JWE (or a key used to wrap the CEK, for
// the +A*KW variants) from an ephemeral-static Diffie-Hellman agreement
// run through the Concat KDF.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.6
const (
	ECDHES       Algorithm = "ECDH-ES"
	ECDHESA128KW Algorithm = "ECDH-ES+A128KW"
	ECDHESA192KW Algorithm = "ECDH-ES+A192KW"
	ECDHESA256KW Algorithm = "ECDH-ES+A256KW"
)

// Key Encryption with AES GCM
//
// These algorithms encrypt the CEK of a JWE with AES GCM under a shared
// symmetric key, carrying the key-encryption IV and tag in the "iv" and
// "tag" header parameters.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.7
const (
	A128GCMKW Algorithm = "A128GCMKW"
	A192GCMKW Algorithm = "A192GCMKW"
	A256GCMKW Algorithm = "A256GCMKW"
)

// PBES2 Key Encryption
//
// These algorithms derive a key-wrapping key from a password using
// PBKDF2 with the salt and iteration count carried in the "p2s" and
// "p2c" header parameters, then wrap the CEK with AES Key Wrap.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.8
const (
	PBES2HS256A128KW Algorithm = "PBES2-HS256+A128KW"
	PBES2HS384A192KW Algorithm = "PBES2-HS384+A192KW"
	PBES2HS512A256KW Algorithm = "PBES2-HS512+A256KW"
)

// AES_CBC_HMAC_SHA2 Content Encryption
//
// These composite algorithms encrypt the plaintext of a JWE with
// AES CBC and authenticate it with HMAC SHA-2, using a key that is the
// concatenation of the MAC key and the encryption key.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-5.2
const (
	A128CBCHS256 Algorithm = "A128CBC-HS256"
	A192CBCHS384 Algorithm = "A192CBC-HS384"
	A256CBCHS512 Algorithm = "A256CBC-HS512"
)

// AES GCM Content Encryption
//
// These algorithms encrypt the plaintext of a JWE with AES GCM using a
// 96-bit IV and a 128-bit authentication tag.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-5.3
const (
	A128GCM Algorithm = "A128GCM"
	A192GCM Algorithm = "A192GCM"
	A256GCM Algorithm = "A256GCM"
)

// DEFLATE compression of JWE plaintexts, the only value defined for the
// "zip" header parameter.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-7.3
const DEF Algorithm = "DEF"

// AllowedAlgorithms is a set of algorithms a caller accepts when
// verifying or decrypting a token.
type AllowedAlgorithms map[Algorithm]struct{}

// NewAllowedAlgorithms returns an AllowedAlgorithms set containing the
// given algorithms.
func NewAllowedAlgorithms(algs ...Algorithm) AllowedAlgorithms {
	set := make(AllowedAlgorithms, len(algs))
	for _, alg := range algs {
		set[alg] = struct{}{}
	}
	return set
}

// List returns the algorithms in the set in sorted order.
func (a AllowedAlgorithms) List() []Algorithm {
	list := make([]Algorithm, 0, len(a))
	for alg := range a {
		list = append(list, alg)
	}
	slices.Sort(list)
	return list
}

// Allowed reports whether all of the given algorithms are in the set.
// An empty set allows nothing.
func (a AllowedAlgorithms) Allowed(algs ...Algorithm) bool {
	if len(algs) == 0 {
		return false
	}
	for _, alg := range algs {
		if _, ok := a[alg]; !ok {
			return false
		}
	}
	return true
}

// DefaultAllowedAlgorithms returns the set of algorithms that are allowed
// to be used when no explicit choice is made.
func DefaultAllowedAlgorithms() AllowedAlgorithms {
	return NewAllowedAlgorithms(RS256, ES256)
}
