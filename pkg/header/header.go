package header

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modscleo4/jose/pkg/base64"
	"github.com/modscleo4/jose/pkg/jwa"
)

// There are three classes of Header Parameter names: Registered Header
// Parameter names, Public Header Parameter names, and Private Header
// Parameter names.
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4
type (
	ParamaterName = string

	Registered = ParamaterName
	Public     = ParamaterName
	Private    = ParamaterName
)

// Registered Header Paramater Names
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4.1
const (
	Type                            Registered = "typ"
	Algorithm                       Registered = "alg"
	JWKSetURL                       Registered = "jku"
	JSONWebKey                      Registered = "jwk"
	X509URL                         Registered = "x5u"
	X509CertificateChain            Registered = "x5c"
	X509CertificateSHA1Thumbprint   Registered = "x5t"
	X509CertificateSHA256Thumbprint Registered = "x5t#S256"
	ContentType                     Registered = "cty"
	Critical                        Registered = "crit"

	// https://www.rfc-editor.org/rfc/rfc7516.html#section-4.1.2
	Encryption Registered = "enc"

	// https://www.rfc-editor.org/rfc/rfc7516.html#section-4.1.3
	Zip Registered = "zip"

	// https://www.rfc-editor.org/rfc/rfc7516.html#section-4.1.6
	KeyID Registered = "kid"
)

// Header Paramaters Used for ECDH Key Agreement
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.6.1
const (
	EphemeralPublicKey  Registered = "epk"
	AgreementPartyUInfo Registered = "apu"
	AgreementPartyVInfo Registered = "apv"
)

// Header Paramaters Used for AES GCM Key Encryption
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.7.1
const (
	InitializationVector Registered = "iv"
	AuthenticationTag    Registered = "tag"
)

// Header Paramaters Used for PBES2 Key Encryption
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.8.1
const (
	PBES2SaltInput      Registered = "p2s"
	PBES2IterationCount Registered = "p2c"
)

const TypeJWT = "JWT"

var (
	// ErrParameterNotFound is returned when a requested header
	// paramater is not present.
	ErrParameterNotFound = errors.New("parameter not found")

	// ErrInvalidParameterType is returned when a header paramater is
	// present but is not the expected type.
	ErrInvalidParameterType = errors.New("invalid parameter type")
)

// Parameters is a JSON object containing the parameters describing
// the cryptographic operations and parameters employed.
//
// The JOSE (JSON Object Signing and Encryption) Parameters is comprised
// of a set of Parameters Parameters.
type Parameters map[ParamaterName]any

func (h Parameters) Base64URLString() (string, error) {
	buff := bytes.NewBuffer(nil)
	err := json.NewEncoder(buff).Encode(h)
	if err != nil {
		return "", fmt.Errorf("failed to encode JOSE header base64 URL string: %w", err)
	}
	return base64.Encode(buff.Bytes()), nil
}

func (h Parameters) Type() (string, error) {
	value, ok := h[Type]
	if !ok {
		return "", fmt.Errorf("header %q paramater not found: %w", Type, ErrParameterNotFound)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("header paramater %q is not a string, is %T: %w", Type, value, ErrInvalidParameterType)
	}
	return strValue, nil
}

func (h Parameters) Algorithm() (jwa.Algorithm, error) {
	value, ok := h[Algorithm]
	if !ok {
		return "", fmt.Errorf("header %q paramater not found: %w", Algorithm, ErrParameterNotFound)
	}

	alg, ok := value.(jwa.Algorithm)
	if !ok {
		return "", fmt.Errorf("header paramater %q is invalid type %T: %w", Algorithm, value, ErrInvalidParameterType)
	}

	return alg, nil
}

// Encryption returns the "enc" (encryption algorithm) paramater of a
// JWE header.
//
// https://www.rfc-editor.org/rfc/rfc7516.html#section-4.1.2
func (h Parameters) Encryption() (jwa.Algorithm, error) {
	value, ok := h[Encryption]
	if !ok {
		return "", fmt.Errorf("header %q paramater not found: %w", Encryption, ErrParameterNotFound)
	}

	enc, ok := value.(jwa.Algorithm)
	if !ok {
		return "", fmt.Errorf("header paramater %q is invalid type %T: %w", Encryption, value, ErrInvalidParameterType)
	}

	return enc, nil
}

func (h Parameters) SymetricAlgorithm() (bool, error) {
	alg, err := h.Algorithm()
	if err != nil {
		return false, err
	}

	switch jwa.Algorithm(alg) {
	case jwa.HS256, jwa.HS384, jwa.HS512:
		return true, nil
	}

	return false, nil
}

func (h Parameters) AsymetricAlgorithm() (bool, error) {
	alg, err := h.Algorithm()
	if err != nil {
		return false, err
	}

	switch jwa.Algorithm(alg) {
	case jwa.HS256, jwa.HS384, jwa.HS512:
		return false, nil
	case jwa.PS256, jwa.PS384, jwa.PS512:
		return true, nil
	case jwa.ES256, jwa.ES384, jwa.ES512:
		return true, nil
	case jwa.RS256, jwa.RS384, jwa.RS512:
		return true, nil
	}

	return false, nil
}

func (h Parameters) Get(param ParamaterName) (any, error) {
	value, ok := h[param]
	if !ok {
		return nil, fmt.Errorf("header %q paramater not found: %w", param, ErrParameterNotFound)
	}
	return value, nil
}

// GetString returns the given paramater as a string.
func (h Parameters) GetString(param ParamaterName) (string, error) {
	value, err := h.Get(param)
	if err != nil {
		return "", err
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("header paramater %q is not a string, is %T: %w", param, value, ErrInvalidParameterType)
	}
	return strValue, nil
}

// GetBytes returns the given paramater, which must be a base64url
// encoded string, as decoded bytes. Paramaters like "apu", "iv", "tag",
// and "p2s" carry binary values this way.
func (h Parameters) GetBytes(param ParamaterName) ([]byte, error) {
	strValue, err := h.GetString(param)
	if err != nil {
		return nil, err
	}
	value, err := base64.Decode(strValue)
	if err != nil {
		return nil, fmt.Errorf("header paramater %q is not base64url encoded: %w", param, err)
	}
	return value, nil
}

// GetInt returns the given paramater as an int. JSON numbers decode as
// float64, which is the common case for paramaters like "p2c".
func (h Parameters) GetInt(param ParamaterName) (int, error) {
	value, err := h.Get(param)
	if err != nil {
		return 0, err
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("header paramater %q is not a number, is %T: %w", param, value, ErrInvalidParameterType)
	}
}
