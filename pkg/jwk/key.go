package jwk

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/modscleo4/jose/pkg/base64"
)

// Key is a strongly typed JWK, one of *EC, *RSA, or *Symmetric. The
// concrete variant is determined by the "kty" parameter, and no other
// implementations are possible. Use ParseKey to decode JSON input into
// the matching variant.
type Key interface {
	// KeyType returns the JWK "kty" parameter value for the key.
	KeyType() string

	// Value returns the generic map representation of the key, usable
	// with Validate and the thumbprint package.
	Value() Value

	jwkKey()
}

// EC is an Elliptic Curve JWK, public or private depending on whether
// the D parameter is set. Only the P-256, P-384, and P-521 curves are
// supported.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-6.2
type EC struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
	D   string `json:"d,omitempty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid,omitempty"`
}

// RSA is an RSA JWK, public or private depending on whether the D
// parameter is set.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-6.3
type RSA struct {
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
	D   string `json:"d,omitempty"`
	P   string `json:"p,omitempty"`
	Q   string `json:"q,omitempty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid,omitempty"`
}

// Symmetric is an octet sequence JWK carrying symmetric key material.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-6.4
type Symmetric struct {
	Kty string `json:"kty"`
	K   string `json:"k"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid,omitempty"`
}

func (k *EC) jwkKey()        {}
func (k *RSA) jwkKey()       {}
func (k *Symmetric) jwkKey() {}

func (k *EC) KeyType() string        { return "EC" }
func (k *RSA) KeyType() string       { return "RSA" }
func (k *Symmetric) KeyType() string { return "oct" }

// ParseKey decodes a single JWK, returning the variant matching its
// "kty" parameter.
func ParseKey(data []byte) (Key, error) {
	var probe struct {
		KeyType string `json:"kty"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse JWK: %w", err)
	}

	switch probe.KeyType {
	case "EC":
		var key EC
		if err := json.Unmarshal(data, &key); err != nil {
			return nil, fmt.Errorf("failed to parse EC JWK: %w", err)
		}

		if err := key.check(); err != nil {
			return nil, err
		}

		return &key, nil
	case "RSA":
		var key RSA
		if err := json.Unmarshal(data, &key); err != nil {
			return nil, fmt.Errorf("failed to parse RSA JWK: %w", err)
		}

		if err := key.check(); err != nil {
			return nil, err
		}

		return &key, nil
	case "oct":
		var key Symmetric
		if err := json.Unmarshal(data, &key); err != nil {
			return nil, fmt.Errorf("failed to parse symmetric JWK: %w", err)
		}

		if key.K == "" {
			return nil, fmt.Errorf("no symmetric key value set")
		}

		return &key, nil
	case "":
		return nil, fmt.Errorf("missing required paramater %q", KeyType)
	default:
		return nil, fmt.Errorf("unknown key type %q", probe.KeyType)
	}
}

func (k *EC) check() error {
	if _, err := namedCurve(k.Crv); err != nil {
		return err
	}

	if k.X == "" || k.Y == "" {
		return fmt.Errorf("EC JWK is missing point coordinates")
	}

	return nil
}

func (k *RSA) check() error {
	if k.N == "" || k.E == "" {
		return fmt.Errorf("RSA JWK is missing public key values")
	}

	return nil
}

// Value returns the generic map representation of the key.
func (k *EC) Value() Value {
	v := Value{KeyType: "EC", Curve: k.Crv, X: k.X, Y: k.Y}
	if k.D != "" {
		v[D] = k.D
	}
	addMetadata(v, k.Use, k.Alg, k.Kid)
	return v
}

// Value returns the generic map representation of the key.
func (k *RSA) Value() Value {
	v := Value{KeyType: "RSA", N: k.N, E: k.E}
	if k.D != "" {
		v[D] = k.D
	}
	addMetadata(v, k.Use, k.Alg, k.Kid)
	return v
}

// Value returns the generic map representation of the key.
func (k *Symmetric) Value() Value {
	v := Value{KeyType: "oct", K: k.K}
	addMetadata(v, k.Use, k.Alg, k.Kid)
	return v
}

func addMetadata(v Value, use, alg, kid string) {
	if use != "" {
		v[PublicKeyUse] = use
	}
	if alg != "" {
		v[Algorithm] = alg
	}
	if kid != "" {
		v[KeyID] = kid
	}
}

// PublicKey returns the ECDSA public key described by the JWK,
// checking that the point is actually on the declared curve.
func (k *EC) PublicKey() (*ecdsa.PublicKey, error) {
	curve, err := namedCurve(k.Crv)
	if err != nil {
		return nil, err
	}

	xBytes, err := base64.Decode(k.X)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ECDSA public key X: %w", err)
	}

	yBytes, err := base64.Decode(k.Y)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ECDSA public key Y: %w", err)
	}

	pkey := &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}

	if !curve.IsOnCurve(pkey.X, pkey.Y) {
		return nil, fmt.Errorf("EC JWK point is not on curve %q", k.Crv)
	}

	return pkey, nil
}

// PrivateKey returns the ECDSA private key described by the JWK.
func (k *EC) PrivateKey() (*ecdsa.PrivateKey, error) {
	if k.D == "" {
		return nil, fmt.Errorf("EC JWK has no private key value")
	}

	pub, err := k.PublicKey()
	if err != nil {
		return nil, err
	}

	dBytes, err := base64.Decode(k.D)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ECDSA private key D: %w", err)
	}

	return &ecdsa.PrivateKey{
		PublicKey: *pub,
		D:         new(big.Int).SetBytes(dBytes),
	}, nil
}

// PublicKey returns the RSA public key described by the JWK, enforcing
// a minimum modulus size of 2048 bits and an odd exponent between 3
// and 2^31-1.
func (k *RSA) PublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.Decode(k.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode RSA public key N: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	if n.BitLen() < 2048 {
		return nil, fmt.Errorf("invalid RSA public key: modulus too small (%d bits)", n.BitLen())
	}

	eBytes, err := base64.Decode(k.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode RSA public key E: %w", err)
	}

	e := new(big.Int).SetBytes(eBytes)
	if e.BitLen() > 31 {
		return nil, fmt.Errorf("invalid RSA public key: exponent too large")
	}

	eInt := int(e.Int64())
	if eInt < 3 || eInt%2 == 0 {
		return nil, fmt.Errorf("invalid RSA public key: exponent %d out of range", eInt)
	}

	return &rsa.PublicKey{N: n, E: eInt}, nil
}

// PrivateKey returns the RSA private key described by the JWK. When the
// prime factors are present the CRT values are precomputed; otherwise
// the key operates on the private exponent alone.
func (k *RSA) PrivateKey() (*rsa.PrivateKey, error) {
	if k.D == "" {
		return nil, fmt.Errorf("RSA JWK has no private key value")
	}

	pub, err := k.PublicKey()
	if err != nil {
		return nil, err
	}

	dBytes, err := base64.Decode(k.D)
	if err != nil {
		return nil, fmt.Errorf("failed to decode RSA private key D: %w", err)
	}

	pkey := &rsa.PrivateKey{
		PublicKey: *pub,
		D:         new(big.Int).SetBytes(dBytes),
	}

	if k.P != "" && k.Q != "" {
		pBytes, err := base64.Decode(k.P)
		if err != nil {
			return nil, fmt.Errorf("failed to decode RSA private key P: %w", err)
		}

		qBytes, err := base64.Decode(k.Q)
		if err != nil {
			return nil, fmt.Errorf("failed to decode RSA private key Q: %w", err)
		}

		pkey.Primes = []*big.Int{
			new(big.Int).SetBytes(pBytes),
			new(big.Int).SetBytes(qBytes),
		}
		pkey.Precompute()
	}

	return pkey, nil
}

// Bytes returns the decoded symmetric key material.
func (k *Symmetric) Bytes() ([]byte, error) {
	if k.K == "" {
		return nil, fmt.Errorf("no symmetric key value set")
	}

	b, err := base64.Decode(k.K)
	if err != nil {
		return nil, fmt.Errorf("failed to decode symmetric key: %w", err)
	}

	return b, nil
}

// FromECDSAPublicKey returns the EC JWK for the given public key. The
// point coordinates are zero padded to the full curve size as RFC 7518
// requires.
func FromECDSAPublicKey(key *ecdsa.PublicKey) (*EC, error) {
	crv, err := curveName(key.Curve)
	if err != nil {
		return nil, err
	}

	size := (key.Curve.Params().BitSize + 7) / 8

	x := make([]byte, size)
	key.X.FillBytes(x)

	y := make([]byte, size)
	key.Y.FillBytes(y)

	return &EC{
		Kty: "EC",
		Crv: crv,
		X:   base64.Encode(x),
		Y:   base64.Encode(y),
	}, nil
}

// FromECDSAPrivateKey returns the EC JWK for the given private key,
// including the private key value.
func FromECDSAPrivateKey(key *ecdsa.PrivateKey) (*EC, error) {
	jwk, err := FromECDSAPublicKey(&key.PublicKey)
	if err != nil {
		return nil, err
	}

	size := (key.Curve.Params().BitSize + 7) / 8

	d := make([]byte, size)
	key.D.FillBytes(d)
	jwk.D = base64.Encode(d)

	return jwk, nil
}

// FromRSAPublicKey returns the RSA JWK for the given public key.
func FromRSAPublicKey(key *rsa.PublicKey) *RSA {
	return &RSA{
		Kty: "RSA",
		N:   base64.Encode(key.N.Bytes()),
		E:   base64.Encode(big.NewInt(int64(key.E)).Bytes()),
	}
}

// FromRSAPrivateKey returns the RSA JWK for the given private key,
// including the private exponent and prime factors.
func FromRSAPrivateKey(key *rsa.PrivateKey) *RSA {
	jwk := FromRSAPublicKey(&key.PublicKey)
	jwk.D = base64.Encode(key.D.Bytes())

	if len(key.Primes) >= 2 {
		jwk.P = base64.Encode(key.Primes[0].Bytes())
		jwk.Q = base64.Encode(key.Primes[1].Bytes())
	}

	return jwk
}

// FromSymmetricKey returns the symmetric JWK wrapping the given key
// material.
func FromSymmetricKey(key []byte) *Symmetric {
	return &Symmetric{
		Kty: "oct",
		K:   base64.Encode(key),
	}
}

func namedCurve(crv string) (elliptic.Curve, error) {
	switch crv {
	case "P-256":
		return elliptic.P256(), nil
	case "P-384":
		return elliptic.P384(), nil
	case "P-521":
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("invalid curve %q", crv)
	}
}

func curveName(curve elliptic.Curve) (string, error) {
	switch curve {
	case elliptic.P256():
		return "P-256", nil
	case elliptic.P384():
		return "P-384", nil
	case elliptic.P521():
		return "P-521", nil
	default:
		return "", fmt.Errorf("invalid curve %q used for JWK value", curve.Params().Name)
	}
}
