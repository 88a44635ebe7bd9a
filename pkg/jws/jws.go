// Package jws implements JSON Web Signature (JWS) as defined
// in RFC 7515.
//
// A JWS represents content secured with a digital signature or
// Message Authentication Code (MAC) using JSON-based data
// structures. Unlike a JWT, the payload of a JWS is an arbitrary
// octet sequence and carries no claims semantics.
//
// https://datatracker.ietf.org/doc/html/rfc7515
package jws

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/modscleo4/jose/pkg/base64"
	josecipher "github.com/modscleo4/jose/pkg/cipher"
	"github.com/modscleo4/jose/pkg/header"
	"github.com/modscleo4/jose/pkg/jwa"
)

// Header is a JSON object containing the parameters describing
// the cryptographic operations and parameters employed.
//
// The JOSE (JSON Object Signing and Encryption) Header is comprised
// of a set of Header Parameters.
type Header = header.Parameters

// Signature is a decoded JWS using the compact serialization.
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-7.1
type Signature struct {
	// Header is the JOSE header describing the signature.
	Header Header

	// Payload is the secured content, an arbitrary octet sequence.
	Payload []byte

	// Signature is the raw (decoded) JWS signature value.
	Signature []byte
}

// algorithm binds a JWS algorithm identifier to the hash and the
// signing primitives it employs. The package-level algorithms table
// is the complete set of supported algorithms; identifiers not in
// the table are rejected by both Sign and Verify.
type algorithm struct {
	hash      crypto.Hash
	curveBits int
	sign      func(a algorithm, key any, input []byte) ([]byte, error)
	verify    func(a algorithm, key any, input, signature []byte) error
}

var algorithms = map[jwa.Algorithm]algorithm{
	jwa.HS256: {hash: crypto.SHA256, sign: signHMAC, verify: verifyHMAC},
	jwa.HS384: {hash: crypto.SHA384, sign: signHMAC, verify: verifyHMAC},
	jwa.HS512: {hash: crypto.SHA512, sign: signHMAC, verify: verifyHMAC},
	jwa.RS256: {hash: crypto.SHA256, sign: signRSA, verify: verifyRSA},
	jwa.RS384: {hash: crypto.SHA384, sign: signRSA, verify: verifyRSA},
	jwa.RS512: {hash: crypto.SHA512, sign: signRSA, verify: verifyRSA},
	jwa.ES256: {hash: crypto.SHA256, curveBits: 256, sign: signECDSA, verify: verifyECDSA},
	jwa.ES384: {hash: crypto.SHA384, curveBits: 384, sign: signECDSA, verify: verifyECDSA},
	jwa.ES512: {hash: crypto.SHA512, curveBits: 521, sign: signECDSA, verify: verifyECDSA},
	jwa.PS256: {hash: crypto.SHA256, sign: signRSAPSS, verify: verifyRSAPSS},
	jwa.PS384: {hash: crypto.SHA384, sign: signRSAPSS, verify: verifyRSAPSS},
	jwa.PS512: {hash: crypto.SHA512, sign: signRSAPSS, verify: verifyRSAPSS},
	jwa.EdDSA: {sign: signEdDSA, verify: verifyEdDSA},
	jwa.None:  {sign: signNone, verify: verifyNone},
}

// SupportedAlgorithms returns the JWS algorithm identifiers this
// package can sign and verify, in lexicographic order.
func SupportedAlgorithms() []jwa.Algorithm {
	supported := make([]jwa.Algorithm, 0, len(algorithms))
	for alg := range algorithms {
		supported = append(supported, alg)
	}

	slices.Sort(supported)

	return supported
}

// New creates a JWS over the given payload and signs it with the
// given key. The key type must match the algorithm declared in the
// header.
func New(h Header, payload []byte, key any) (*Signature, error) {
	signature := &Signature{
		Header:  h,
		Payload: payload,
	}

	if _, err := signature.Sign(key); err != nil {
		return nil, err
	}

	return signature, nil
}

// Parse decodes a JWS in the compact serialization. It performs no
// signature verification; call Verify on the result.
func Parse(input string) (*Signature, error) {
	if input == "" {
		return nil, fmt.Errorf("empty JWS string")
	}

	parts := strings.Split(input, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWS format: expected 2 dots, got %d", len(parts)-1)
	}

	headerBytes, err := base64.Decode(parts[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}

	h := Header{}
	if err := json.Unmarshal(headerBytes, &h); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	payload := []byte{}
	if parts[1] != "" {
		payload, err = base64.Decode(parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
	}

	var signature []byte
	if parts[2] != "" {
		signature, err = base64.Decode(parts[2])
		if err != nil {
			return nil, fmt.Errorf("failed to decode signature: %w", err)
		}
	}

	return &Signature{
		Header:    h,
		Payload:   payload,
		Signature: signature,
	}, nil
}

// Sign computes the JWS signature over the signing input using the
// algorithm declared in the header, stores it in the Signature field
// and returns it.
func (s *Signature) Sign(key any) ([]byte, error) {
	alg, err := s.Header.Algorithm()
	if err != nil {
		return nil, fmt.Errorf("missing or invalid algorithm in header: %w", err)
	}

	suite, ok := algorithms[alg]
	if !ok {
		return nil, fmt.Errorf("unsupported algorithm %q", alg)
	}

	input, err := s.signingInput()
	if err != nil {
		return nil, err
	}

	signature, err := suite.sign(suite, key, []byte(input))
	if err != nil {
		return nil, err
	}

	s.Signature = signature

	return signature, nil
}

// VerifyOption configures signature verification.
type VerifyOption func(*verifyConfig)

type verifyConfig struct {
	allowedAlgorithms jwa.AllowedAlgorithms
}

// WithExpectedAlgorithms restricts verification to the given
// algorithms. A JWS declaring any other algorithm is rejected before
// the key is inspected. Without this option any supported algorithm
// declared by the JWS is accepted.
func WithExpectedAlgorithms(algs ...jwa.Algorithm) VerifyOption {
	return func(config *verifyConfig) {
		config.allowedAlgorithms = jwa.NewAllowedAlgorithms(algs...)
	}
}

// Verify checks the JWS signature using the algorithm declared in
// the header. The key type must match the algorithm.
func (s *Signature) Verify(key any, opts ...VerifyOption) error {
	config := &verifyConfig{}
	for _, opt := range opts {
		opt(config)
	}

	alg, err := s.Header.Algorithm()
	if err != nil {
		return fmt.Errorf("missing or invalid algorithm in header: %w", err)
	}

	suite, ok := algorithms[alg]
	if !ok {
		return fmt.Errorf("unsupported algorithm %q", alg)
	}

	if config.allowedAlgorithms != nil && !config.allowedAlgorithms.Allowed(alg) {
		return fmt.Errorf("algorithm %q is not allowed", alg)
	}

	input, err := s.signingInput()
	if err != nil {
		return err
	}

	return suite.verify(suite, key, []byte(input), s.Signature)
}

// String returns the compact serialization of the JWS. An unsecured
// JWS ends with a trailing dot since its signature is empty.
func (s *Signature) String() string {
	input, err := s.signingInput()
	if err != nil {
		return ""
	}

	buff := bytes.Buffer{}
	buff.WriteString(input)
	buff.WriteString(".")
	buff.WriteString(base64.Encode(s.Signature))

	return buff.String()
}

// signingInput builds the JWS Signing Input, the concatenation of
// the encoded header and the encoded payload separated by a dot.
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-5.1
func (s *Signature) signingInput() (string, error) {
	headerJSON, err := json.Marshal(s.Header)
	if err != nil {
		return "", fmt.Errorf("failed to encode header: %w", err)
	}

	return base64.Encode(headerJSON) + "." + base64.Encode(s.Payload), nil
}

func hmacKey(key any) ([]byte, error) {
	switch key := key.(type) {
	case []byte:
		return key, nil
	case string:
		return []byte(key), nil
	default:
		return nil, fmt.Errorf("invalid key type %T used for HMAC signature", key)
	}
}

func signHMAC(a algorithm, key any, input []byte) ([]byte, error) {
	secret, err := hmacKey(key)
	if err != nil {
		return nil, err
	}

	return josecipher.SignHMAC(a.hash, secret, input), nil
}

func verifyHMAC(a algorithm, key any, input, signature []byte) error {
	secret, err := hmacKey(key)
	if err != nil {
		return err
	}

	if !josecipher.VerifyHMAC(a.hash, secret, input, signature) {
		return fmt.Errorf("invalid HMAC signature")
	}

	return nil
}

func rsaPublicKey(key any) (*rsa.PublicKey, error) {
	switch key := key.(type) {
	case *rsa.PublicKey:
		return key, nil
	case *rsa.PrivateKey:
		return &key.PublicKey, nil
	default:
		return nil, fmt.Errorf("invalid key type %T used for RSA signature", key)
	}
}

func signRSA(a algorithm, key any, input []byte) ([]byte, error) {
	privateKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("invalid key type %T used for RSA signature", key)
	}

	if privateKey.N.BitLen() < 2048 {
		return nil, fmt.Errorf("RSA key size must be at least 2048 bits")
	}

	return josecipher.SignRSAPKCS1v15(a.hash, privateKey, input)
}

func verifyRSA(a algorithm, key any, input, signature []byte) error {
	publicKey, err := rsaPublicKey(key)
	if err != nil {
		return err
	}

	if !josecipher.VerifyRSAPKCS1v15(a.hash, publicKey, input, signature) {
		return fmt.Errorf("invalid RSA signature")
	}

	return nil
}

func signRSAPSS(a algorithm, key any, input []byte) ([]byte, error) {
	privateKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("invalid key type %T used for RSA-PSS signature", key)
	}

	if privateKey.N.BitLen() < 2048 {
		return nil, fmt.Errorf("RSA key size must be at least 2048 bits")
	}

	return josecipher.SignRSAPSS(a.hash, privateKey, input)
}

func verifyRSAPSS(a algorithm, key any, input, signature []byte) error {
	publicKey, err := rsaPublicKey(key)
	if err != nil {
		return err
	}

	if !josecipher.VerifyRSAPSS(a.hash, publicKey, input, signature) {
		return fmt.Errorf("invalid RSA-PSS signature")
	}

	return nil
}

func ecdsaPublicKey(key any) (*ecdsa.PublicKey, error) {
	switch key := key.(type) {
	case *ecdsa.PublicKey:
		return key, nil
	case *ecdsa.PrivateKey:
		return &key.PublicKey, nil
	default:
		return nil, fmt.Errorf("invalid key type %T used for ECDSA signature", key)
	}
}

func signECDSA(a algorithm, key any, input []byte) ([]byte, error) {
	privateKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("invalid key type %T used for ECDSA signature", key)
	}

	if bits := privateKey.Curve.Params().BitSize; bits != a.curveBits {
		return nil, fmt.Errorf("invalid ECDSA key: expected a %d-bit curve, got %d bits", a.curveBits, bits)
	}

	return josecipher.SignECDSA(a.hash, privateKey, input)
}

func verifyECDSA(a algorithm, key any, input, signature []byte) error {
	publicKey, err := ecdsaPublicKey(key)
	if err != nil {
		return err
	}

	if bits := publicKey.Curve.Params().BitSize; bits != a.curveBits {
		return fmt.Errorf("invalid ECDSA key: expected a %d-bit curve, got %d bits", a.curveBits, bits)
	}

	if !josecipher.VerifyECDSA(a.hash, publicKey, input, signature) {
		return fmt.Errorf("invalid ECDSA signature")
	}

	return nil
}

func signEdDSA(a algorithm, key any, input []byte) ([]byte, error) {
	privateKey, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("invalid key type %T used for EdDSA signature", key)
	}

	return ed25519.Sign(privateKey, input), nil
}

func verifyEdDSA(a algorithm, key any, input, signature []byte) error {
	var publicKey ed25519.PublicKey

	switch key := key.(type) {
	case ed25519.PublicKey:
		publicKey = key
	case ed25519.PrivateKey:
		publicKey = key.Public().(ed25519.PublicKey)
	default:
		return fmt.Errorf("invalid key type %T used for EdDSA signature", key)
	}

	if !ed25519.Verify(publicKey, input, signature) {
		return fmt.Errorf("invalid EdDSA signature")
	}

	return nil
}

func signNone(a algorithm, key any, input []byte) ([]byte, error) {
	return nil, nil
}

// verifyNone accepts only an empty signature. An unsecured JWS that
// carries signature bytes is malformed.
//
// https://datatracker.ietf.org/doc/html/rfc7515#appendix-A.5
func verifyNone(a algorithm, key any, input, signature []byte) error {
	if len(signature) != 0 {
		return fmt.Errorf("unsecured JWS must not have a signature")
	}

	return nil
}
