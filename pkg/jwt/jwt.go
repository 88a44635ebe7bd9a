package jwt

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modscleo4/jose/pkg/base64"
	josecipher "github.com/modscleo4/jose/pkg/cipher"
	"github.com/modscleo4/jose/pkg/header"
	"github.com/modscleo4/jose/pkg/jwa"
	"github.com/modscleo4/jose/pkg/jws"
	"golang.org/x/exp/slices"
)

// Type "JWT" is the media type used by JSON Web Token (JWT).
//
// # Example
//
//	header := header.Parameters{
//		header.Type:      jwt.Type,
//		header.Algorithm: jwa.HS256,
//	}
//
// https://www.rfc-editor.org/rfc/rfc7515.html#section-3.3
const Type header.ParamaterName = "JWT"

// Token is a decoded JSON Web Token, a string representing a
// set of claims as a JSON object that is encoded in a JWS or
// JWE, enabling the claims to be digitally signed or MACed
// and/or encrypted.
//
// At this time, only JWS JWTs are supported. In other words,
// these tokens are only signed, not encrypted.
//
// JWTs contain three parts, separated by dots (".") which are:
//
//  1. Header
//  2. Claims (Payload)
//  3. Signature
//
// https://datatracker.ietf.org/doc/html/rfc7519#section-1
type Token struct {
	// Header is the set of parameters that are used to describe
	// the cryptographic operations applied to the JWT claims set.
	Header header.Parameters

	// Claims is the set of claims that are asserted by the JWT.
	//
	// This is sometimes referred to as the "payload".
	Claims ClaimsSet

	// Signature is the cryptographic signature or MAC value
	// that is used to validate the JWT.
	Signature []byte

	// Raw is the (original) string representation of the JWT.
	raw string
}

// New can be used to create a signed Token object. If this fails for any
// reason, an error is returned with a nil token.
//
// Using this function does not require the given header parameters define
// the "typ" (header.Type), which is always set to "JWT" (header.TypeJWT), but
// callers can include it if they like.
//
// The claims set must not be empty, or will return an error.
//
// The given key can be a symmetric or asymmetric (private) key. The type for this
// argument depends on the algorithm "alg" defined in the header.
//
// Algorithm(s) to Supported Key Type(s):
//   - HS256, HS384, HS512: []byte or string
//   - RS256, RS384, RS512: *rsa.PrivateKey
//   - PS256, PS384, PS512: *rsa.PrivateKey
//   - ES256, ES384, ES512: *ecdsa.PrivateKey
//   - EdDSA: ed25519.PrivateKey
func New(params header.Parameters, claims ClaimsSet, key any) (*Token, error) {
	// Given params set cannot be empty.
	if len(params) == 0 {
		return nil, fmt.Errorf("cannot create token with empty header parameters")
	}

	// Given claims set cannot be emtpy.
	if len(claims) == 0 {
		return nil, fmt.Errorf("cannot create token with empty claims set: %w", ErrNoClaimSet)
	}

	// Verify or otherwise handle registered claim types nicely.
	for name, value := range claims {
		switch name {
		case ExpirationTime, NotBefore, IssuedAt:
			switch v := value.(type) {
			// good
			case int64:
			// ok
			case int:
				claims[name] = int64(v)
			case time.Time:
				claims[name] = v.Unix()
			// bad
			default:
				return nil, fmt.Errorf("cannot use %T with %q", v, name)
			}
		case Issuer, Subject:
			switch v := value.(type) {
			// good
			case string:
			// ok
			case fmt.Stringer:
				claims[name] = v.String()
			// bad
			default:
				return nil, fmt.Errorf("cannot use %T with %q", v, name)
			}
		case Audience:
			switch v := value.(type) {
			// good
			case string:
			case []string:
			// ok
			case fmt.Stringer:
				claims[name] = v.String()
			// bad
			default:
				return nil, fmt.Errorf("cannot use %T with %q", v, name)
			}
		}
	}

	// Ensure the "typ" header parameter is set to "JWT", as it is required.
	if _, ok := params[header.Type]; !ok {
		params[header.Type] = Type
	} else if params[header.Type] != Type {
		return nil, NewInvalidTypeError(fmt.Errorf("header type %q is not supported", params[header.Type]))
	}

	// Create a token, in preparation to sign it.
	token := &Token{
		Header: params,
		Claims: claims,
	}

	// Sign it.
	_, err := token.Sign(key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, nil
}

// computeString computes the string representation of the token,
// which is used for signing and verifying the token.
func (t *Token) computeString() string {
	buff := bytes.NewBuffer(nil)

	header, err := t.Header.Base64URLString()
	if err != nil {
		buff.Write([]byte(fmt.Sprintf("<invalid-header %#+v>.", header)))
	} else {
		buff.Write([]byte(header + "."))
	}

	if len(t.Claims) > 0 {
		buff.WriteString(t.Claims.String())
	}

	if len(t.Signature) != 0 {
		buff.Write([]byte("."))
		buff.WriteString(base64.Encode(t.Signature))
	}

	if len(t.raw) == 0 {
		t.raw = buff.String()
	}

	return buff.String()
}

// String returns the string representation of the token, which is
// the raw JWT string of three base64url encoded parts, separated
// by a period.
func (t *Token) String() string {
	// Return the raw string if it is set.
	if len(t.raw) != 0 {
		return t.raw
	}

	// If there raw string is not set, compute it.
	return t.computeString()
}

// signingInput returns the portion of the token covered by the
// signature, the base64url encoded header and claims joined with
// a period.
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-5.1
func (t *Token) signingInput() (string, error) {
	// Prefer the original segments so tokens round-trip byte for byte.
	if parts := strings.Split(t.raw, "."); len(parts) >= 2 {
		return strings.Join(parts[0:2], "."), nil
	}

	str, err := t.Header.Base64URLString()
	if err != nil {
		return "", fmt.Errorf("failed to generate JOSE header base64 string: %w", err)
	}

	return str + "." + t.Claims.String(), nil
}

// PrivateKey is a type that can be used to sign a JWT,
// such as a *rsa.PrivateKey or *ecdsa.PrivateKey.
//
// This may be a shared secret key, such as a []byte or string, but
// this is not recommended.
type PrivateKey interface {
	*rsa.PrivateKey | *ecdsa.PrivateKey | ed25519.PrivateKey | []byte | string
}

// PublicKey is a type that can be used to verify a JWT using
// an asymmetric algorithm, such as *rsa.PublicKey or *ecdsa.PublicKey.
type PublicKey interface {
	*rsa.PublicKey | *ecdsa.PublicKey | ed25519.PublicKey
}

// SymmetricKey is a type that can be used to sign or verify a JWT using
// a symmetric algorithm, such as HMAC.
type SymmetricKey interface {
	[]byte | string
}

// VerifyKey is a type that can be used to verify a JWT using
// either a symmetric or asymmetric algorithm.
type VerifyKey interface {
	PublicKey | SymmetricKey
}

// SigningKey is a type that can be used to sign a JWT using
// either a symmetric or asymmetric algorithm.
type SigningKey interface {
	PrivateKey | SymmetricKey
}

// Parseable is a type that can be parsed into a JWT,
// either a string or byte slice.
type Parseable interface {
	~string | ~[]byte
}

// Parse parses a given JWT, and returns a Token or an error
// if the JWT fails to parse.
//
// # Warning
//
// This is a low-level function that does not verify the
// signature of the token. Use ParseAndVerify to parse
// and verify the signature of a token in one step.
// Otherwise, use Parse to parse a token, and then
// use the VerifySignature method to verify the signature.
func Parse[T Parseable](input T) (*Token, error) {
	return ParseString(string(input))
}

// ParseAndVerify parses a given JWT, and verifies the signature
// using the given verification configuration options.
func ParseAndVerify[T Parseable](input T, veryifyOptions ...VerifyOption) (*Token, error) {
	token, err := Parse(input)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	err = token.Verify(veryifyOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to verify JWT signature: %w", err)
	}

	return token, nil
}

// ParseString parses a given JWT string, and returns a Token
// or an error if the JWT fails to parse.
//
// # Warning
//
// This is a low-level function that does not verify the
// signature of the token. Use ParseAndVerify to parse
// and verify the signature of a token in one step.
// Otherwise, use Parse to parse a token, and then
// use the VerifySignature method to verify the signature.
func ParseString(input string) (*Token, error) {
	token := &Token{}

	token.raw = input

	// Anything after the second period is treated as part of the signature,
	// where it will fail base64 decoding.
	fields := strings.SplitN(input, ".", 3)

	if len(fields) != 3 {
		return nil, fmt.Errorf("incorrect number of JWT parts: %d", len(fields))
	}

	b, err := base64.Decode(fields[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode JOSE header base64: %w", err)
	}
	h := jws.Header{}
	err = json.NewDecoder(bytes.NewReader(b)).Decode(&h)
	if err != nil {
		return nil, fmt.Errorf("failed to decode JOSE header JSON: %w", err)
	}
	token.Header = h

	// ensure using JWA types instead of raw string
	if _, ok := token.Header[header.Algorithm]; ok {
		token.Header[header.Algorithm] = jwa.Algorithm(fmt.Sprintf("%v", token.Header[header.Algorithm]))
	}

	b, err = base64.Decode(fields[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode claims base64: %w", err)
	}
	claims := ClaimsSet{}
	err = json.NewDecoder(bytes.NewReader(b)).Decode(&claims)
	if err != nil {
		return nil, fmt.Errorf("failed to decode claims JSON: %w", err)
	}
	token.Claims = claims

	for claimName, claimValue := range token.Claims {
		// parsing JSON values into an interface can be tricky
		switch claimName {
		case IssuedAt, ExpirationTime, NotBefore:
			switch v := claimValue.(type) {
			case int64: // good
			case float64: // ok
				token.Claims[claimName] = int64(v)
			default: // bad
				return nil, fmt.Errorf("invalid type %T used for %q", v, claimName)
			}
		}
	}

	// An empty signature part is valid for unsecured tokens.
	//
	// https://datatracker.ietf.org/doc/html/rfc7519#section-6
	if fields[2] != "" {
		b, err = base64.Decode(fields[2])
		if err != nil {
			return nil, fmt.Errorf("failed to decode signature base64: %w", err)
		}
		token.Signature = b
	}

	return token, nil
}

// VerifyConfig is a configuration type for verifying JWTs.
type VerifyConfig struct {
	// InsecureAllowNone allows the "none" algorithm to be used, which
	// is considered insecure, dangerous, and disabled by default. It must be
	// set in addition to being enabled in the allowed algorithms.
	InsecureAllowNone bool

	// AllowedAlgorithms is a set of allowed algorithms for the JWT.
	//
	// If not set, then jwt.DefaultAllowedAlgorithms will be used.
	AllowedAlgorithms []jwa.Algorithm

	// AllowedIssuers is a set of allowed issuers for the JWT.
	//
	// If not set, then any issuers are allowed.
	AllowedIssuers []string

	// AllowedAudiences is a set of allowed audiences for the JWT.
	//
	// If not set, then any audiences are allowed.
	AllowedAudiences []string

	// AllowedKeys is a set of allowed keys for the JWT.
	//
	// If not set, then verification will fail if the algorithm
	// is not "none".
	AllowedKeys []any

	// IdentifiableKeys maps key IDs to verification keys. When a token
	// identifies its key with a matching "kid" header parameter, only
	// the mapped key is used to verify the signature.
	IdentifiableKeys map[string]any

	// SupportedCriticalHeaders is the set of extension header parameter
	// names the caller understands, used to process the "crit" header
	// parameter.
	//
	// If not set, any token using "crit" fails verification.
	SupportedCriticalHeaders []string

	// Clock is a function that returns the current time.
	//
	// This is used to verify the "exp", "nbf", and "iat" claims.
	//
	// If not set, then time.Now will be used.
	Clock func() time.Time

	// ClockSkewTolerance is the amount of clock skew to tolerate when
	// verifying the "exp" and "nbf" claims.
	//
	// If not set, then no clock skew is tolerated.
	ClockSkewTolerance time.Duration
}

// VerifyOption is a functional option type used to configure
// the verification requirements for JWTs.
type VerifyOption func(*VerifyConfig) error

// WithAllowInsecureNoneAlgorithm allows the "none" algorithm to be used.
// Users must explicitly enable this option, as it is
// considered insecure, dangerous, and disabled by default.
//
// # WARNING
//
// This is not recommended, and should only be used
// for testing purposes.
func WithAllowInsecureNoneAlgorithm(value bool) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.InsecureAllowNone = value
		return nil
	}
}

// WithAllowedIssuers sets the allowed issuers for the JWT.
func WithAllowedIssuers(issuers ...string) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.AllowedIssuers = issuers
		return nil
	}
}

// WithAllowedAudiences sets the allowed audiences for the JWT.
func WithAllowedAudiences(audiences ...string) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.AllowedAudiences = audiences
		return nil
	}
}

// WithAllowedAlgorithms sets the allowed algorithms for the JWT.
func WithAllowedAlgorithms(algs ...jwa.Algorithm) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.AllowedAlgorithms = algs
		return nil
	}
}

// WithKey appends a key to the set of allowed keys for the JWT.
//
// This is the preferred way to add a key to the set of allowed keys,
// because it will ensure that the givne key is of the correct type
// at compile time.
func WithKey[T VerifyKey](key T) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.AllowedKeys = append(vc.AllowedKeys, key)
		return nil
	}
}

// WithKeys sets the allowed keys for the JWT.
func WithKeys(values ...any) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.AllowedKeys = values
		return nil
	}
}

// WithIdentifiableKey appends a key to the set of allowed keys for
// the JWT, identified by the given key ID. When a verified token
// includes a matching "kid" header parameter, only this key is used
// to verify the signature.
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4.1.4
func WithIdentifiableKey[T VerifyKey](kid string, key T) VerifyOption {
	return func(vc *VerifyConfig) error {
		if vc.IdentifiableKeys == nil {
			vc.IdentifiableKeys = map[string]any{}
		}
		vc.IdentifiableKeys[kid] = key
		vc.AllowedKeys = append(vc.AllowedKeys, key)
		return nil
	}
}

// WithSupportedCriticalHeaders sets the extension header parameter
// names the caller understands, used to process the "crit" header
// parameter.
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4.1.11
func WithSupportedCriticalHeaders(names ...string) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.SupportedCriticalHeaders = names
		return nil
	}
}

// WithClock sets the clock function for verifying the JWT.
func WithClock(clock Clock) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.Clock = clock
		return nil
	}
}

// WithDefaultClock sets the clock function for verifying the JWT
// to time.Now.
func WithDefaultClock() VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.Clock = time.Now
		return nil
	}
}

// WithClockSkewTolerance sets the amount of clock skew to tolerate
// when verifying the "exp" and "nbf" claims.
func WithClockSkewTolerance(tolerance time.Duration) VerifyOption {
	return func(vc *VerifyConfig) error {
		if tolerance < 0 {
			return fmt.Errorf("clock skew tolerance cannot be negative")
		}
		vc.ClockSkewTolerance = tolerance
		return nil
	}
}

// Clock is type used to represent a function that returns the current time.
type Clock func() time.Time

// Expired returns true if the token is expired, false otherwise.
// If an error occurs while checking expiration, it is returned.
//
// Only use the boolean value if error is nil.
func (t *Token) Expired(clock Clock) (bool, error) {
	expValue, ok := t.Claims[ExpirationTime]
	if !ok {
		return false, nil
	}
	expInt, ok := expValue.(int64)
	if !ok {
		return false, fmt.Errorf("invalid value %q for %q", expValue, ExpirationTime)
	}
	exp := time.Unix(expInt, 0)

	return exp.Before(clock()), nil
}

// Expires returns true if the token has an expiration time claim,
// false otherwise. If an error occurs while checking expiration,
// it is returned.
//
// Only use the boolean value if error is nil.
func (t *Token) Expires() (bool, error) {
	expValue, ok := t.Claims[ExpirationTime]
	if !ok {
		return false, nil
	}
	_, ok = expValue.(int64)
	if !ok {
		return false, fmt.Errorf("invalid value %q for %q", expValue, ExpirationTime)
	}
	return true, nil
}

// algorithm to corresponding hash function
var algHash = map[jwa.Algorithm]crypto.Hash{
	jwa.HS256: crypto.SHA256,
	jwa.HS384: crypto.SHA384,
	jwa.HS512: crypto.SHA512,
	jwa.RS256: crypto.SHA256,
	jwa.RS384: crypto.SHA384,
	jwa.RS512: crypto.SHA512,
	jwa.ES256: crypto.SHA256,
	jwa.ES384: crypto.SHA384,
	jwa.ES512: crypto.SHA512,
	jwa.PS256: crypto.SHA256,
	jwa.PS384: crypto.SHA384,
	jwa.PS512: crypto.SHA512,
	jwa.EdDSA: crypto.Hash(0), // no hashing for EdDSA
}

// VerifySignature verifies the signature of the token using the
// given allowed algorithms and keys.
//
// # Warning
//
// This only verifies the signature, and does not verify any
// other claims, such as expiration time, issuer, audience, etc.
func (t *Token) VerifySignature(allowedAlgs []jwa.Algorithm, allowedKeys ...any) error {
	alg, err := t.Header.Algorithm()
	if err != nil {
		return fmt.Errorf("failed to verify alg: %w", err)
	}

	if !slices.Contains(allowedAlgs, alg) {
		return fmt.Errorf("requested algorithm %q is not allowed", alg)
	}

	// The "none" algorithm carries no signature, and the token must not
	// smuggle one in.
	//
	// https://datatracker.ietf.org/doc/html/rfc7519#section-6.1
	if alg == jwa.None {
		if len(t.Signature) != 0 {
			return fmt.Errorf("token signature must be empty for %q algorithm", jwa.None)
		}
		return nil
	}

	// Require a key (symmetric or asymmetric) for all algorithms except "none".
	if len(allowedKeys) == 0 {
		return fmt.Errorf("no key provided to verify signature using algorithm %q", alg)
	}

	// Verify the signature based on the algorithm, trying each allowed
	// key in turn. Keys of the wrong type are skipped, not fatal, so a
	// mixed key set can still verify the token.
	switch alg {
	case jwa.HS256, jwa.HS384, jwa.HS512:
		var errs []error
		for _, key := range allowedKeys {
			if err := t.VerifyHMACSignature(algHash[alg], key); err != nil {
				errs = append(errs, err)
				continue
			}
			return nil
		}
		return fmt.Errorf("failed to verify HMAC signature using any of the allowed keys: %w", errors.Join(errs...))
	case jwa.RS256, jwa.RS384, jwa.RS512:
		var errs []error
		for _, key := range allowedKeys {
			publicKey, ok := key.(*rsa.PublicKey)
			if !ok {
				errs = append(errs, fmt.Errorf("public key type %T is invalid", key))
				continue
			}
			if err := t.VerifyRSASignature(algHash[alg], publicKey); err != nil {
				errs = append(errs, err)
				continue
			}
			return nil
		}
		return fmt.Errorf("failed to verify RSA signature using any of the allowed keys: %w", errors.Join(errs...))
	case jwa.PS256, jwa.PS384, jwa.PS512:
		var errs []error
		for _, key := range allowedKeys {
			publicKey, ok := key.(*rsa.PublicKey)
			if !ok {
				errs = append(errs, fmt.Errorf("public key type %T is invalid", key))
				continue
			}
			if err := t.VerifyRSAPSSSignature(algHash[alg], publicKey); err != nil {
				errs = append(errs, err)
				continue
			}
			return nil
		}
		return fmt.Errorf("failed to verify RSA-PSS signature using any of the allowed keys: %w", errors.Join(errs...))
	case jwa.ES256, jwa.ES384, jwa.ES512:
		var errs []error
		for _, key := range allowedKeys {
			publicKey, ok := key.(*ecdsa.PublicKey)
			if !ok {
				errs = append(errs, fmt.Errorf("public key type %T is invalid", key))
				continue
			}
			if err := t.VerifyECDSASignature(algHash[alg], publicKey); err != nil {
				errs = append(errs, err)
				continue
			}
			return nil
		}
		return fmt.Errorf("failed to verify ECDSA signature using any of the allowed keys: %w", errors.Join(errs...))
	case jwa.EdDSA:
		var errs []error
		for _, key := range allowedKeys {
			publicKey, ok := key.(ed25519.PublicKey)
			if !ok {
				errs = append(errs, fmt.Errorf("public key type %T is invalid", key))
				continue
			}
			if err := t.VerifyEdDSASignature(publicKey); err != nil {
				errs = append(errs, err)
				continue
			}
			return nil
		}
		return fmt.Errorf("failed to verify EdDSA signature using any of the allowed keys: %w", errors.Join(errs...))
	default:
		return fmt.Errorf("algorithm %q not implemented or allowed", alg)
	}
}

// hmacSecretKey normalizes the given key for HMAC use. Byte slice keys
// must be at least the size of the hash output. String keys are not
// subject to the minimum size check.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.2
func hmacSecretKey(hash crypto.Hash, key any) ([]byte, error) {
	var secretKey []byte

	// If the key is a string, convert it to a byte slice.
	switch keyTyped := key.(type) {
	case []byte:
		if len(keyTyped) < hash.Size() {
			return nil, fmt.Errorf("HMAC key must be at least %d bytes, got %d", hash.Size(), len(keyTyped))
		}
		secretKey = keyTyped
	case string:
		secretKey = []byte(keyTyped)
	default:
		return nil, fmt.Errorf("secret key is %T, not a byte slice or string", key)
	}

	// Ensure the secret key is not empty.
	if len(secretKey) == 0 {
		return nil, fmt.Errorf("no secret key provided, cannot complete operation")
	}

	return secretKey, nil
}

// HMACSignature returns the HMAC signature of the token using the
// given hash and key, which may be a []byte or string.
func (t *Token) HMACSignature(hash crypto.Hash, key any) ([]byte, error) {
	secretKey, err := hmacSecretKey(hash, key)
	if err != nil {
		return nil, err
	}

	// Ensure the hash is available.
	if !hash.Available() {
		return nil, fmt.Errorf("requested hash is not available")
	}

	data, err := t.signingInput()
	if err != nil {
		return nil, err
	}

	return josecipher.SignHMAC(hash, secretKey, []byte(data)), nil
}

// VerifyHMACSignature verifies the HMAC signature of the token using the
// given hash and key.
func (t *Token) VerifyHMACSignature(hash crypto.Hash, key any) error {
	secretKey, err := hmacSecretKey(hash, key)
	if err != nil {
		return err
	}

	if !hash.Available() {
		return fmt.Errorf("requested hash is not available")
	}

	data, err := t.signingInput()
	if err != nil {
		return err
	}

	// Compare the signature to the token's signature.
	if !josecipher.VerifyHMAC(hash, secretKey, []byte(data), t.Signature) {
		return fmt.Errorf("invalid HMAC signature")
	}

	return nil
}

// minRSAKeySize is the minimum RSA key size in bits accepted for
// signing and verification, per NIST SP 800-131A.
const minRSAKeySize = 2048

// validateRSAKeySize ensures the given RSA key, public or private,
// meets the minimum modulus size.
func validateRSAKeySize(key any) error {
	var publicKey *rsa.PublicKey

	switch keyTyped := key.(type) {
	case *rsa.PrivateKey:
		publicKey = &keyTyped.PublicKey
	case *rsa.PublicKey:
		publicKey = keyTyped
	default:
		return fmt.Errorf("invalid RSA key type: %T", key)
	}

	size := publicKey.Size()
	if size < minRSAKeySize/8 {
		return fmt.Errorf("RSA key size %d bytes (%d bits) is below minimum required %d bytes (%d bits)",
			size, size*8, minRSAKeySize/8, minRSAKeySize)
	}

	return nil
}

// RSASignature returns the RSASSA-PKCS1-v1_5 signature of the token
// using the given hash and private key.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.3
func (t *Token) RSASignature(hash crypto.Hash, privateKey *rsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("no RSA private key")
	}

	if err := validateRSAKeySize(privateKey); err != nil {
		return nil, fmt.Errorf("RSA key validation failed: %w", err)
	}

	if !hash.Available() {
		return nil, fmt.Errorf("requested hash is not available")
	}

	data, err := t.signingInput()
	if err != nil {
		return nil, err
	}

	return josecipher.SignRSAPKCS1v15(hash, privateKey, []byte(data))
}

// VerifyRSASignature verifies the RSASSA-PKCS1-v1_5 signature of the
// token using the given hash and public key.
func (t *Token) VerifyRSASignature(hash crypto.Hash, publicKey *rsa.PublicKey) error {
	if publicKey == nil {
		return fmt.Errorf("no RSA public key")
	}

	if err := validateRSAKeySize(publicKey); err != nil {
		return fmt.Errorf("RSA key validation failed: %w", err)
	}

	if !hash.Available() {
		return fmt.Errorf("requested hash is not available")
	}

	data, err := t.signingInput()
	if err != nil {
		return err
	}

	if !josecipher.VerifyRSAPKCS1v15(hash, publicKey, []byte(data), t.Signature) {
		return fmt.Errorf("failed to verify RSA signature")
	}

	return nil
}

// RSAPSSSignature returns the RSASSA-PSS signature of the token using
// the given hash and private key.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.5
func (t *Token) RSAPSSSignature(hash crypto.Hash, privateKey *rsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("no RSA private key")
	}

	if err := validateRSAKeySize(privateKey); err != nil {
		return nil, fmt.Errorf("RSA key validation failed: %w", err)
	}

	if !hash.Available() {
		return nil, fmt.Errorf("requested hash is not available")
	}

	data, err := t.signingInput()
	if err != nil {
		return nil, err
	}

	return josecipher.SignRSAPSS(hash, privateKey, []byte(data))
}

// VerifyRSAPSSSignature verifies the RSASSA-PSS signature of the token
// using the given hash and public key.
func (t *Token) VerifyRSAPSSSignature(hash crypto.Hash, publicKey *rsa.PublicKey) error {
	if publicKey == nil {
		return fmt.Errorf("no RSA public key")
	}

	if err := validateRSAKeySize(publicKey); err != nil {
		return fmt.Errorf("RSA key validation failed: %w", err)
	}

	if !hash.Available() {
		return fmt.Errorf("requested hash is not available")
	}

	data, err := t.signingInput()
	if err != nil {
		return err
	}

	if !josecipher.VerifyRSAPSS(hash, publicKey, []byte(data), t.Signature) {
		return fmt.Errorf("failed to verify RSA-PSS signature")
	}

	return nil
}

// ecdsaCurveBits maps a hash to the curve size required for ECDSA
// signatures using that hash. ES512 uses the P-521 curve, not P-512.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.4
var ecdsaCurveBits = map[crypto.Hash]int{
	crypto.SHA256: 256,
	crypto.SHA384: 384,
	crypto.SHA512: 521,
}

// ECDSASignature returns the ECDSA signature of the token using the
// given hash and private key. The signature is the R || S form used
// by JWS, not ASN.1 DER.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.4
func (t *Token) ECDSASignature(hash crypto.Hash, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("no ECDSA private key")
	}

	curveBits, ok := ecdsaCurveBits[hash]
	if !ok {
		return nil, fmt.Errorf("invalid hash %v requested", hash)
	}

	if keyCurveBits := privateKey.Curve.Params().BitSize; keyCurveBits != curveBits {
		return nil, fmt.Errorf("invalid ECDSA key: expected a %d-bit curve, got %d bits", curveBits, keyCurveBits)
	}

	data, err := t.signingInput()
	if err != nil {
		return nil, err
	}

	return josecipher.SignECDSA(hash, privateKey, []byte(data))
}

// VerifyECDSASignature verifies the ECDSA signature of the token using
// the given hash and public key.
func (t *Token) VerifyECDSASignature(hash crypto.Hash, publicKey *ecdsa.PublicKey) error {
	if publicKey == nil {
		return fmt.Errorf("no ECDSA public key")
	}

	curveBits, ok := ecdsaCurveBits[hash]
	if !ok {
		return fmt.Errorf("invalid hash %v requested", hash)
	}

	if keyCurveBits := publicKey.Curve.Params().BitSize; keyCurveBits != curveBits {
		return fmt.Errorf("invalid ECDSA key: expected a %d-bit curve, got %d bits", curveBits, keyCurveBits)
	}

	data, err := t.signingInput()
	if err != nil {
		return err
	}

	if !josecipher.VerifyECDSA(hash, publicKey, []byte(data), t.Signature) {
		return fmt.Errorf("failed to validate ECDSA signature")
	}

	return nil
}

// EdDSASignature returns the EdDSA signature of the token using the
// given private key.
//
// https://datatracker.ietf.org/doc/html/rfc8037#section-3.1
func (t *Token) EdDSASignature(privateKey ed25519.PrivateKey) ([]byte, error) {
	if len(privateKey) == 0 {
		return nil, fmt.Errorf("no EdDSA private key")
	}

	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid Ed25519 private key size")
	}

	data, err := t.signingInput()
	if err != nil {
		return nil, err
	}

	return ed25519.Sign(privateKey, []byte(data)), nil
}

// VerifyEdDSASignature verifies the EdDSA signature of the token using
// the given public key.
func (t *Token) VerifyEdDSASignature(publicKey ed25519.PublicKey) error {
	if len(publicKey) == 0 {
		return fmt.Errorf("no EdDSA public key")
	}

	if len(publicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid Ed25519 public key size")
	}

	data, err := t.signingInput()
	if err != nil {
		return err
	}

	if !ed25519.Verify(publicKey, []byte(data), t.Signature) {
		return fmt.Errorf("failed to validate EdDSA signature")
	}

	return nil
}

// Sign signs the token using the given key, setting the Signature
// field and returning the signature bytes.
func (t *Token) Sign(key any) ([]byte, error) {
	typ, err := t.Header.Type()
	if err != nil {
		return nil, NewInvalidTypeError(err)
	}

	if typ != Type {
		return nil, NewInvalidTypeError(fmt.Errorf("header type %q is not supported", typ))
	}

	alg, err := t.Header.Algorithm()
	if err != nil {
		return nil, fmt.Errorf("missing JWT header algorithm: %w", err)
	}

	var sig []byte

	switch alg {
	case jwa.HS256, jwa.HS384, jwa.HS512:
		sig, err = t.HMACSignature(algHash[alg], key)
	case jwa.RS256, jwa.RS384, jwa.RS512:
		privateKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("invalid secret key type %T for %s", key, alg)
		}
		sig, err = t.RSASignature(algHash[alg], privateKey)
	case jwa.PS256, jwa.PS384, jwa.PS512:
		privateKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("invalid secret key type %T for %s", key, alg)
		}
		sig, err = t.RSAPSSSignature(algHash[alg], privateKey)
	case jwa.ES256, jwa.ES384, jwa.ES512:
		privateKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("invalid secret key type %T for %s", key, alg)
		}
		sig, err = t.ECDSASignature(algHash[alg], privateKey)
	case jwa.EdDSA:
		privateKey, ok := key.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("invalid secret key type %T for %s", key, alg)
		}
		sig, err = t.EdDSASignature(privateKey)
	case jwa.None:
		// no signature
	default:
		return nil, fmt.Errorf("algorithm %q not implemented", alg)
	}
	if err != nil {
		return nil, NewSigningError(err)
	}

	t.Signature = sig
	t.raw = t.computeString()

	return t.Signature, nil
}

var defaultAllowedAlgorithms = []jwa.Algorithm{
	jwa.RS256, jwa.RS384, jwa.RS512,
	jwa.ES256, jwa.ES384, jwa.ES512,
	jwa.HS256, jwa.HS384, jwa.HS512,
	jwa.PS256, jwa.PS384, jwa.PS512,
	jwa.EdDSA,
}

// DefaultAllowedAlgorithms returns the default set of allowed signing
// algorithms, every supported algorithm except "none".
func DefaultAllowedAlgorithms() []jwa.Algorithm {
	return slices.Clone(defaultAllowedAlgorithms)
}

// standardHeaderParameters are the header parameters registered by the
// JWS and JWE specifications, which must not be listed in "crit".
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4.1.11
var standardHeaderParameters = []string{
	header.Algorithm,
	header.JWKSetURL,
	header.JSONWebKey,
	header.KeyID,
	header.X509URL,
	header.X509CertificateChain,
	header.X509CertificateSHA1Thumbprint,
	header.X509CertificateSHA256Thumbprint,
	header.Type,
	header.ContentType,
	header.Critical,
	header.Encryption,
	header.Zip,
}

// validateCriticalHeaders processes the "crit" header parameter, which
// lists extension header parameters that must be understood to accept
// the token. Standard header parameters must not be listed.
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4.1.11
func (t *Token) validateCriticalHeaders(supported []string) error {
	critValue, ok := t.Header[header.Critical]
	if !ok {
		return nil
	}

	var names []any
	switch v := critValue.(type) {
	case []any:
		names = v
	case []string:
		names = make([]any, 0, len(v))
		for _, name := range v {
			names = append(names, name)
		}
	default:
		return fmt.Errorf("critical header parameter %q must be an array", header.Critical)
	}

	if len(names) == 0 {
		return fmt.Errorf("critical header parameter %q must not be empty", header.Critical)
	}

	for _, nameValue := range names {
		name, ok := nameValue.(string)
		if !ok {
			return fmt.Errorf("critical header parameter names must be strings, got %T", nameValue)
		}

		if slices.Contains(standardHeaderParameters, name) {
			return fmt.Errorf("critical header parameter %q is a standard header and cannot be marked as critical", name)
		}

		if !slices.Contains(supported, name) {
			return fmt.Errorf("unsupported critical header parameter: %q", name)
		}

		if _, ok := t.Header[name]; !ok {
			return fmt.Errorf("critical header parameter %q is missing from header", name)
		}
	}

	return nil
}

// verifyAudience checks the "aud" claim value against the allowed
// audiences. The claim may be a single string or an array of strings,
// and at least one value must be allowed.
//
// https://datatracker.ietf.org/doc/html/rfc7519#section-4.1.3
func verifyAudience(value ClaimValue, allowed []string) error {
	switch audience := value.(type) {
	case string:
		if !slices.Contains(allowed, audience) {
			return fmt.Errorf("requested audience %q is not allowed", audience)
		}
	case []string:
		for _, aud := range audience {
			if slices.Contains(allowed, aud) {
				return nil
			}
		}
		return fmt.Errorf("none of the requested audiences %v are allowed", audience)
	case []any:
		audiences := make([]string, 0, len(audience))
		for _, audValue := range audience {
			aud, ok := audValue.(string)
			if !ok {
				return fmt.Errorf("invalid audience type %T", audValue)
			}
			audiences = append(audiences, aud)
		}
		for _, aud := range audiences {
			if slices.Contains(allowed, aud) {
				return nil
			}
		}
		return fmt.Errorf("none of the requested audiences %v are allowed", audiences)
	default:
		return fmt.Errorf("invalid audience type %T", value)
	}

	return nil
}

// Verify is used to verify a signed Token object with the given config
// options. If this fails for any reason, an error wrapping
// ErrInvalidToken is returned.
func (t *Token) Verify(opts ...VerifyOption) error {
	// Set default config values that can be overridden by options.
	config := &VerifyConfig{
		InsecureAllowNone: false,
		AllowedAlgorithms: DefaultAllowedAlgorithms(),
		Clock:             time.Now,
	}

	// Apply options.
	for _, opt := range opts {
		err := opt(config)
		if err != nil {
			return fmt.Errorf("verify option error: %w", err)
		}
	}

	// The "none" algorithm must be allowed twice over, in the allowed
	// algorithms and with the insecure config flag.
	allowedAlgorithms := config.AllowedAlgorithms
	if !config.InsecureAllowNone && slices.Contains(allowedAlgorithms, jwa.None) {
		allowedAlgorithms = slices.DeleteFunc(slices.Clone(allowedAlgorithms), func(alg jwa.Algorithm) bool {
			return alg == jwa.None
		})
	}

	// When the token identifies its key with a "kid" header parameter
	// that matches a registered identifiable key, use that key alone.
	allowedKeys := config.AllowedKeys
	if len(config.IdentifiableKeys) > 0 {
		if kid, err := t.Header.GetString(header.KeyID); err == nil {
			if key, ok := config.IdentifiableKeys[kid]; ok {
				allowedKeys = []any{key}
			}
		}
	}

	// Verify the signature of the token, which may be "none" if the
	// explictly allowed "none" algorithm is set in the config.
	err := t.VerifySignature(allowedAlgorithms, allowedKeys...)
	if err != nil {
		return fmt.Errorf("failed to validate token signature: %w: %w", err, ErrInvalidToken)
	}

	// Any header parameter the token marks as critical must be
	// understood by the caller.
	if err := t.validateCriticalHeaders(config.SupportedCriticalHeaders); err != nil {
		return fmt.Errorf("%w: %w", err, ErrInvalidToken)
	}

	// If the allowed issuers is empty, then any issuer is allowed.
	//
	// Otherwise, the issuer must be in the allowed issuers.
	if config.AllowedIssuers != nil {
		issuer := fmt.Sprintf("%s", t.Claims[Issuer])

		if !slices.Contains(config.AllowedIssuers, issuer) {
			return fmt.Errorf("requested issuer %q is not allowed: %w", issuer, ErrInvalidToken)
		}
	}

	// If the allowed audiences is empty, then any audience is allowed.
	//
	// Otherwise, at least one audience must be in the allowed audiences.
	if config.AllowedAudiences != nil {
		if err := verifyAudience(t.Claims[Audience], config.AllowedAudiences); err != nil {
			return fmt.Errorf("%w: %w", err, ErrInvalidToken)
		}
	}

	now := config.Clock()

	if expValue, ok := t.Claims[ExpirationTime]; ok {
		expInt, ok := expValue.(int64)
		if !ok {
			return fmt.Errorf("token contains invalid %q value %v: %w", ExpirationTime, expValue, ErrInvalidToken)
		}
		if time.Unix(expInt, 0).Add(config.ClockSkewTolerance).Before(now) {
			return fmt.Errorf("token is expired: %w", ErrInvalidToken)
		}
	}

	if notBeforeValue, ok := t.Claims[NotBefore]; ok {
		notBeforeInt, ok := notBeforeValue.(int64)
		if !ok {
			return fmt.Errorf("token contains invalid %q value %v: %w", NotBefore, notBeforeValue, ErrInvalidToken)
		}
		notBefore := time.Unix(notBeforeInt, 0)
		if now.Add(config.ClockSkewTolerance).Before(notBefore) {
			return fmt.Errorf("token is unable to be used before %v: %w", notBefore, ErrInvalidToken)
		}
	}

	return nil
}

// FromHTTPAuthorizationHeader extracts a JWT string from the Authorization header of an HTTP request.
// If the Authorization header is not set, then an error is returned.
//
// # Warning
//
// This value needs to be parsed and verified before it can be used safely.
func FromHTTPAuthorizationHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid authorization header format")
	}

	if strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("invalid authorization header format")
	}

	return parts[1], nil
}

// HTTPHeaderValue is a type that can be used as a value when setting
// an HTTP request header.
type HTTPHeaderValue interface {
	string | Token
}

// SetHTTPAuthorizationHeader sets the Authorization header of an HTTP request
// to the given JWT. The JWT is prefixed with "Bearer ", as required by the
// HTTP Authorization header specification.
//
// https://tools.ietf.org/html/rfc6750#section-2.1
func SetHTTPAuthorizationHeader[T HTTPHeaderValue](r *http.Request, jwt T) {
	r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", jwt))
}
