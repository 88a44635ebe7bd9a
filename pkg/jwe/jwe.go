// Package jwe implements JSON Web Encryption (JWE) as defined
// in RFC 7516.
//
// A JWE represents encrypted content using JSON-based data
// structures. This package implements the compact serialization,
// with the full set of RFC 7518 key management algorithms (direct,
// RSA, AES Key Wrap, AES GCM key wrap, PBES2 and ECDH-ES families)
// and content encryption algorithms (AES CBC+HMAC composites and
// AES GCM).
//
// https://datatracker.ietf.org/doc/html/rfc7516
package jwe

import (
	"bytes"
	"compress/flate"
	"crypto"
	"crypto/aes"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	_ "crypto/sha1" // for RSA-OAEP
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/exp/slices"

	"github.com/modscleo4/jose/pkg/base64"
	josecipher "github.com/modscleo4/jose/pkg/cipher"
	"github.com/modscleo4/jose/pkg/header"
	"github.com/modscleo4/jose/pkg/jwa"
	"github.com/modscleo4/jose/pkg/jwk"
)

// Header is a JSON object containing the parameters describing
// the cryptographic operations and parameters employed.
//
// The JOSE (JSON Object Signing and Encryption) Header is comprised
// of a set of Header Parameters.
type Header = header.Parameters

// Header paramater names used in JWE headers.
//
// https://www.rfc-editor.org/rfc/rfc7516.html#section-4.1
const (
	Algorithm                       = header.Algorithm
	EncryptionAlgorithm             = header.Encryption
	CompressionAlgorithm            = header.Zip
	JWKSetURL                       = header.JWKSetURL
	JSONWebKey                      = header.JSONWebKey
	KeyID                           = header.KeyID
	X509URL                         = header.X509URL
	X509CertificateChain            = header.X509CertificateChain
	X509CertificateSHA1Thumbprint   = header.X509CertificateSHA1Thumbprint
	X509CertificateSHA256Thumbprint = header.X509CertificateSHA256Thumbprint
	Type                            = header.Type
	ContentType                     = header.ContentType
	Critical                        = header.Critical
)

// ErrInvalidEncryption is returned when a JWE fails an authentication
// check during decryption, either on the content or on the encrypted
// key. The exact cause is deliberately not distinguished.
var ErrInvalidEncryption = errors.New("invalid encryption")

const (
	defaultPBES2Iterations = 100000

	// maxPBES2Iterations caps the work a hostile "p2c" header
	// paramater can demand during decryption.
	maxPBES2Iterations = 1000000

	pbes2SaltSize = 16

	// maxDecompressedSize caps DEFLATE expansion of a hostile token.
	maxDecompressedSize = 10 << 20
)

// Encryption is a decoded JWE using the compact serialization.
//
// https://datatracker.ietf.org/doc/html/rfc7516#section-7.1
type Encryption struct {
	// Header is the JOSE header describing the encryption.
	Header Header

	// EncryptedKey is the encrypted Content Encryption Key. It is
	// empty for the "dir" and "ECDH-ES" algorithms.
	EncryptedKey []byte

	// IV is the initialization vector for the content encryption.
	IV []byte

	// Ciphertext is the encrypted (and possibly compressed) payload.
	Ciphertext []byte

	// Tag is the authentication tag over the ciphertext and the
	// protected header.
	Tag []byte

	// rawHeader is the base64url protected header segment exactly as
	// produced or parsed. It is the additional authenticated data for
	// the content encryption, so it must survive verbatim; the JSON
	// serialization of Header is not guaranteed to reproduce it.
	rawHeader string
}

// contentEncryption binds a JWE "enc" algorithm identifier to the CEK
// size, IV size and AEAD constructor it employs. The package-level
// contentEncryptions table is the complete set of supported content
// encryption algorithms.
type contentEncryption struct {
	keySize int
	ivSize  int
	tagSize int
	newAEAD func(cek []byte) (aead, error)
}

type aead interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

var contentEncryptions = map[jwa.Algorithm]contentEncryption{
	jwa.A128CBCHS256: {keySize: 32, ivSize: josecipher.NonceSizeCBCHMAC, tagSize: 16, newAEAD: newCBCHMAC},
	jwa.A192CBCHS384: {keySize: 48, ivSize: josecipher.NonceSizeCBCHMAC, tagSize: 24, newAEAD: newCBCHMAC},
	jwa.A256CBCHS512: {keySize: 64, ivSize: josecipher.NonceSizeCBCHMAC, tagSize: 32, newAEAD: newCBCHMAC},
	jwa.A128GCM:      {keySize: 16, ivSize: josecipher.NonceSizeGCM, tagSize: josecipher.TagSizeGCM, newAEAD: newGCM},
	jwa.A192GCM:      {keySize: 24, ivSize: josecipher.NonceSizeGCM, tagSize: josecipher.TagSizeGCM, newAEAD: newGCM},
	jwa.A256GCM:      {keySize: 32, ivSize: josecipher.NonceSizeGCM, tagSize: josecipher.TagSizeGCM, newAEAD: newGCM},
}

func newCBCHMAC(cek []byte) (aead, error) {
	return josecipher.NewCBCHMAC(cek, aes.NewCipher)
}

func newGCM(cek []byte) (aead, error) {
	return josecipher.NewGCM(cek, josecipher.TagSizeGCM)
}

// keyManager binds a JWE "alg" algorithm identifier to its CEK
// handling. wrap produces the CEK together with the encrypted key
// segment and any header paramaters the algorithm contributes (epk,
// iv/tag, p2s/p2c); unwrap recovers the CEK from the encrypted key
// segment and the header. The package-level keyManagers table is the
// complete set of supported key management algorithms.
type keyManager struct {
	// keySize is the size of the symmetric kek, the PBES2 derived key
	// or the ECDH-ES derived wrapping key. Zero when the algorithm is
	// keyed by the content encryption algorithm instead.
	keySize int

	// hash is the PBES2 PRF or the RSA-OAEP digest.
	hash crypto.Hash

	wrap   func(m keyManager, alg, enc jwa.Algorithm, cekSize int, key any, params Header) (wrappedKey, error)
	unwrap func(m keyManager, alg, enc jwa.Algorithm, e *Encryption, key any, cekSize int) ([]byte, error)
}

// wrappedKey is the result of CEK handling at encryption time.
type wrappedKey struct {
	cek          []byte
	encryptedKey []byte
	params       Header
}

var keyManagers = map[jwa.Algorithm]keyManager{
	jwa.Dir:              {wrap: wrapDirect, unwrap: unwrapDirect},
	jwa.RSA1_5:           {wrap: wrapRSA, unwrap: unwrapRSA},
	jwa.RSAOAEP:          {hash: crypto.SHA1, wrap: wrapRSA, unwrap: unwrapRSA},
	jwa.RSAOAEP256:       {hash: crypto.SHA256, wrap: wrapRSA, unwrap: unwrapRSA},
	jwa.A128KW:           {keySize: 16, wrap: wrapAESKW, unwrap: unwrapAESKW},
	jwa.A192KW:           {keySize: 24, wrap: wrapAESKW, unwrap: unwrapAESKW},
	jwa.A256KW:           {keySize: 32, wrap: wrapAESKW, unwrap: unwrapAESKW},
	jwa.A128GCMKW:        {keySize: 16, wrap: wrapAESGCMKW, unwrap: unwrapAESGCMKW},
	jwa.A192GCMKW:        {keySize: 24, wrap: wrapAESGCMKW, unwrap: unwrapAESGCMKW},
	jwa.A256GCMKW:        {keySize: 32, wrap: wrapAESGCMKW, unwrap: unwrapAESGCMKW},
	jwa.PBES2HS256A128KW: {keySize: 16, hash: crypto.SHA256, wrap: wrapPBES2, unwrap: unwrapPBES2},
	jwa.PBES2HS384A192KW: {keySize: 24, hash: crypto.SHA384, wrap: wrapPBES2, unwrap: unwrapPBES2},
	jwa.PBES2HS512A256KW: {keySize: 32, hash: crypto.SHA512, wrap: wrapPBES2, unwrap: unwrapPBES2},
	jwa.ECDHES:           {wrap: wrapECDHES, unwrap: unwrapECDHES},
	jwa.ECDHESA128KW:     {keySize: 16, wrap: wrapECDHESKW, unwrap: unwrapECDHESKW},
	jwa.ECDHESA192KW:     {keySize: 24, wrap: wrapECDHESKW, unwrap: unwrapECDHESKW},
	jwa.ECDHESA256KW:     {keySize: 32, wrap: wrapECDHESKW, unwrap: unwrapECDHESKW},
}

// SupportedKeyManagementAlgorithms returns the JWE "alg" identifiers
// this package supports, in lexicographic order.
func SupportedKeyManagementAlgorithms() []jwa.Algorithm {
	supported := make([]jwa.Algorithm, 0, len(keyManagers))
	for alg := range keyManagers {
		supported = append(supported, alg)
	}

	slices.Sort(supported)

	return supported
}

// SupportedContentEncryptionAlgorithms returns the JWE "enc"
// identifiers this package supports, in lexicographic order.
func SupportedContentEncryptionAlgorithms() []jwa.Algorithm {
	supported := make([]jwa.Algorithm, 0, len(contentEncryptions))
	for enc := range contentEncryptions {
		supported = append(supported, enc)
	}

	slices.Sort(supported)

	return supported
}

// Encrypt creates a JWE over the given plaintext. The params header
// must declare the key management algorithm ("alg") and the content
// encryption algorithm ("enc"); it may also carry "zip", "apu"/"apv"
// and any additional paramaters, which are all integrity protected.
// Header paramaters produced by the key management algorithm (epk,
// iv/tag, p2s/p2c) are merged in by Encrypt itself.
//
// The key type must match the key management algorithm: a symmetric
// key ([]byte, string or *jwk.Symmetric) for dir, AES and PBES2
// algorithms, an RSA public key for the RSA family and an EC public
// key for the ECDH-ES family.
func Encrypt(params Header, plaintext []byte, key any) (*Encryption, error) {
	alg, err := params.Algorithm()
	if err != nil {
		return nil, fmt.Errorf("missing or invalid algorithm in header: %w", err)
	}

	enc, err := params.Encryption()
	if err != nil {
		return nil, fmt.Errorf("missing or invalid encryption algorithm in header: %w", err)
	}

	suite, ok := contentEncryptions[enc]
	if !ok {
		return nil, fmt.Errorf("unsupported encryption algorithm %q", enc)
	}

	manager, ok := keyManagers[alg]
	if !ok {
		return nil, fmt.Errorf("unsupported algorithm %q", alg)
	}

	h := Header{}
	for name, value := range params {
		h[name] = value
	}

	wk, err := manager.wrap(manager, alg, enc, suite.keySize, key, params)
	if err != nil {
		return nil, err
	}

	for name, value := range wk.params {
		h[name] = value
	}

	headerJSON, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}

	rawHeader := base64.Encode(headerJSON)

	content := plaintext
	if _, ok := h[header.Zip]; ok {
		zip, err := h.GetString(header.Zip)
		if err != nil {
			return nil, fmt.Errorf("failed to read zip from header: %w", err)
		}

		if zip != jwa.DEF {
			return nil, fmt.Errorf("unsupported compression algorithm %q", zip)
		}

		content, err = deflate(plaintext)
		if err != nil {
			return nil, err
		}
	}

	iv, err := randomBytes(suite.ivSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	cipher, err := suite.newAEAD(wk.cek)
	if err != nil {
		return nil, err
	}

	sealed := cipher.Seal(nil, iv, content, []byte(rawHeader))

	return &Encryption{
		Header:       h,
		EncryptedKey: wk.encryptedKey,
		IV:           iv,
		Ciphertext:   sealed[:len(sealed)-suite.tagSize],
		Tag:          sealed[len(sealed)-suite.tagSize:],
		rawHeader:    rawHeader,
	}, nil
}

// Parse decodes a JWE in the compact serialization. It performs no
// decryption; call Decrypt on the result.
func Parse(token string) (*Encryption, error) {
	if token == "" {
		return nil, fmt.Errorf("empty JWE string")
	}

	parts := strings.Split(token, ".")
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid JWE format: expected 4 dots, got %d", len(parts)-1)
	}

	headerBytes, err := base64.Decode(parts[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}

	h := Header{}
	if err := json.Unmarshal(headerBytes, &h); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	var encryptedKey []byte
	if parts[1] != "" {
		encryptedKey, err = base64.Decode(parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to decode encrypted key: %w", err)
		}
	}

	var iv []byte
	if parts[2] != "" {
		iv, err = base64.Decode(parts[2])
		if err != nil {
			return nil, fmt.Errorf("failed to decode IV: %w", err)
		}
	}

	var ciphertext []byte
	if parts[3] != "" {
		ciphertext, err = base64.Decode(parts[3])
		if err != nil {
			return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
		}
	}

	var tag []byte
	if parts[4] != "" {
		tag, err = base64.Decode(parts[4])
		if err != nil {
			return nil, fmt.Errorf("failed to decode tag: %w", err)
		}
	}

	return &Encryption{
		Header:       h,
		EncryptedKey: encryptedKey,
		IV:           iv,
		Ciphertext:   ciphertext,
		Tag:          tag,
		rawHeader:    parts[0],
	}, nil
}

// ParseAndDecrypt decodes a JWE in the compact serialization and
// decrypts it with the given expected algorithms and key.
func ParseAndDecrypt(token string, alg, enc jwa.Algorithm, key any) ([]byte, error) {
	e, err := Parse(token)
	if err != nil {
		return nil, err
	}

	return e.Decrypt(alg, enc, key)
}

// Decrypt recovers the plaintext of the JWE. The header's declared
// algorithms must both equal the caller's expected alg and enc; a
// mismatch is rejected before any key material is used. The key type
// must match the key management algorithm (the private counterpart of
// the key used to encrypt, for the asymmetric families).
func (e *Encryption) Decrypt(alg, enc jwa.Algorithm, key any) ([]byte, error) {
	headerAlg, err := e.Header.Algorithm()
	if err != nil {
		return nil, fmt.Errorf("missing or invalid algorithm in header: %w", err)
	}

	if headerAlg != alg {
		return nil, fmt.Errorf("algorithm mismatch: header declares %q, expected %q", headerAlg, alg)
	}

	headerEnc, err := e.Header.Encryption()
	if err != nil {
		return nil, fmt.Errorf("missing or invalid encryption algorithm in header: %w", err)
	}

	if headerEnc != enc {
		return nil, fmt.Errorf("encryption algorithm mismatch: header declares %q, expected %q", headerEnc, enc)
	}

	suite, ok := contentEncryptions[enc]
	if !ok {
		return nil, fmt.Errorf("unsupported encryption algorithm %q", enc)
	}

	manager, ok := keyManagers[alg]
	if !ok {
		return nil, fmt.Errorf("unsupported algorithm %q", alg)
	}

	cek, err := manager.unwrap(manager, alg, enc, e, key, suite.keySize)
	if err != nil {
		return nil, err
	}

	if len(cek) != suite.keySize {
		return nil, fmt.Errorf("CEK has wrong size %d, expected %d", len(cek), suite.keySize)
	}

	if len(e.IV) != suite.ivSize {
		return nil, fmt.Errorf("invalid IV size %d, expected %d", len(e.IV), suite.ivSize)
	}

	aad, err := e.protectedHeader()
	if err != nil {
		return nil, err
	}

	cipher, err := suite.newAEAD(cek)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(e.Ciphertext)+len(e.Tag))
	sealed = append(sealed, e.Ciphertext...)
	sealed = append(sealed, e.Tag...)

	plaintext, err := cipher.Open(nil, e.IV, sealed, []byte(aad))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w: %w", ErrInvalidEncryption, err)
	}

	if _, ok := e.Header[header.Zip]; ok {
		zip, err := e.Header.GetString(header.Zip)
		if err != nil {
			return nil, fmt.Errorf("failed to read zip from header: %w", err)
		}

		if zip != jwa.DEF {
			return nil, fmt.Errorf("unsupported compression algorithm %q", zip)
		}

		plaintext, err = inflate(plaintext)
		if err != nil {
			return nil, err
		}
	}

	return plaintext, nil
}

// String returns the compact serialization of the JWE.
func (e *Encryption) String() string {
	protected, err := e.protectedHeader()
	if err != nil {
		return ""
	}

	buff := bytes.Buffer{}
	buff.WriteString(protected)
	buff.WriteString(".")
	buff.WriteString(base64.Encode(e.EncryptedKey))
	buff.WriteString(".")
	buff.WriteString(base64.Encode(e.IV))
	buff.WriteString(".")
	buff.WriteString(base64.Encode(e.Ciphertext))
	buff.WriteString(".")
	buff.WriteString(base64.Encode(e.Tag))

	return buff.String()
}

// protectedHeader returns the base64url protected header segment,
// reusing the verbatim segment when the Encryption was produced by
// Encrypt or Parse.
func (e *Encryption) protectedHeader() (string, error) {
	if e.rawHeader != "" {
		return e.rawHeader, nil
	}

	headerJSON, err := json.Marshal(e.Header)
	if err != nil {
		return "", fmt.Errorf("failed to encode header: %w", err)
	}

	return base64.Encode(headerJSON), nil
}

func wrapDirect(m keyManager, alg, enc jwa.Algorithm, cekSize int, key any, params Header) (wrappedKey, error) {
	secret, err := symmetricKey(key)
	if err != nil {
		return wrappedKey{}, err
	}

	if len(secret) < cekSize {
		return wrappedKey{}, fmt.Errorf("direct encryption with %q requires a key of at least %d bytes, got %d", enc, cekSize, len(secret))
	}

	return wrappedKey{cek: secret[:cekSize]}, nil
}

func unwrapDirect(m keyManager, alg, enc jwa.Algorithm, e *Encryption, key any, cekSize int) ([]byte, error) {
	if len(e.EncryptedKey) != 0 {
		return nil, fmt.Errorf("encrypted key must be empty for direct encryption")
	}

	secret, err := symmetricKey(key)
	if err != nil {
		return nil, err
	}

	if len(secret) < cekSize {
		return nil, fmt.Errorf("direct encryption with %q requires a key of at least %d bytes, got %d", enc, cekSize, len(secret))
	}

	return secret[:cekSize], nil
}

func wrapRSA(m keyManager, alg, enc jwa.Algorithm, cekSize int, key any, params Header) (wrappedKey, error) {
	publicKey, err := rsaEncryptionKey(key)
	if err != nil {
		return wrappedKey{}, err
	}

	if publicKey.N.BitLen() < 2048 {
		return wrappedKey{}, fmt.Errorf("RSA key size must be at least 2048 bits")
	}

	cek, err := randomBytes(cekSize)
	if err != nil {
		return wrappedKey{}, fmt.Errorf("failed to generate CEK: %w", err)
	}

	var encryptedKey []byte
	switch alg {
	case jwa.RSA1_5:
		encryptedKey, err = rsa.EncryptPKCS1v15(rand.Reader, publicKey, cek)
	default:
		encryptedKey, err = rsa.EncryptOAEP(m.hash.New(), rand.Reader, publicKey, cek, nil)
	}
	if err != nil {
		return wrappedKey{}, fmt.Errorf("failed to encrypt CEK: %w", err)
	}

	return wrappedKey{cek: cek, encryptedKey: encryptedKey}, nil
}

func unwrapRSA(m keyManager, alg, enc jwa.Algorithm, e *Encryption, key any, cekSize int) ([]byte, error) {
	privateKey, err := rsaDecryptionKey(key)
	if err != nil {
		return nil, err
	}

	switch alg {
	case jwa.RSA1_5:
		// A padding failure keeps the random CEK in place, so it only
		// surfaces later as a tag mismatch and cannot be used as a
		// padding oracle.
		cek, err := randomBytes(cekSize)
		if err != nil {
			return nil, fmt.Errorf("failed to generate CEK: %w", err)
		}

		if err := rsa.DecryptPKCS1v15SessionKey(rand.Reader, privateKey, e.EncryptedKey, cek); err != nil {
			return nil, fmt.Errorf("failed to decrypt CEK: %w: %w", ErrInvalidEncryption, err)
		}

		return cek, nil
	default:
		cek, err := rsa.DecryptOAEP(m.hash.New(), rand.Reader, privateKey, e.EncryptedKey, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt CEK: %w: %w", ErrInvalidEncryption, err)
		}

		return cek, nil
	}
}

func wrapAESKW(m keyManager, alg, enc jwa.Algorithm, cekSize int, key any, params Header) (wrappedKey, error) {
	kek, err := symmetricKey(key)
	if err != nil {
		return wrappedKey{}, err
	}

	if len(kek) != m.keySize {
		return wrappedKey{}, fmt.Errorf("%s requires a %d-byte key, got %d", alg, m.keySize, len(kek))
	}

	cek, err := randomBytes(cekSize)
	if err != nil {
		return wrappedKey{}, fmt.Errorf("failed to generate CEK: %w", err)
	}

	encryptedKey, err := wrapWithAESKW(kek, cek)
	if err != nil {
		return wrappedKey{}, err
	}

	return wrappedKey{cek: cek, encryptedKey: encryptedKey}, nil
}

func unwrapAESKW(m keyManager, alg, enc jwa.Algorithm, e *Encryption, key any, cekSize int) ([]byte, error) {
	kek, err := symmetricKey(key)
	if err != nil {
		return nil, err
	}

	if len(kek) != m.keySize {
		return nil, fmt.Errorf("%s requires a %d-byte key, got %d", alg, m.keySize, len(kek))
	}

	return unwrapWithAESKW(kek, e.EncryptedKey)
}

func wrapAESGCMKW(m keyManager, alg, enc jwa.Algorithm, cekSize int, key any, params Header) (wrappedKey, error) {
	kek, err := symmetricKey(key)
	if err != nil {
		return wrappedKey{}, err
	}

	if len(kek) != m.keySize {
		return wrappedKey{}, fmt.Errorf("%s requires a %d-byte key, got %d", alg, m.keySize, len(kek))
	}

	cek, err := randomBytes(cekSize)
	if err != nil {
		return wrappedKey{}, fmt.Errorf("failed to generate CEK: %w", err)
	}

	iv, err := randomBytes(josecipher.NonceSizeGCM)
	if err != nil {
		return wrappedKey{}, fmt.Errorf("failed to generate IV: %w", err)
	}

	cipher, err := josecipher.NewGCM(kek, josecipher.TagSizeGCM)
	if err != nil {
		return wrappedKey{}, err
	}

	sealed := cipher.Seal(nil, iv, cek, nil)

	return wrappedKey{
		cek:          cek,
		encryptedKey: sealed[:len(sealed)-josecipher.TagSizeGCM],
		params: Header{
			header.InitializationVector: base64.Encode(iv),
			header.AuthenticationTag:    base64.Encode(sealed[len(sealed)-josecipher.TagSizeGCM:]),
		},
	}, nil
}

func unwrapAESGCMKW(m keyManager, alg, enc jwa.Algorithm, e *Encryption, key any, cekSize int) ([]byte, error) {
	kek, err := symmetricKey(key)
	if err != nil {
		return nil, err
	}

	if len(kek) != m.keySize {
		return nil, fmt.Errorf("%s requires a %d-byte key, got %d", alg, m.keySize, len(kek))
	}

	iv, err := e.Header.GetBytes(header.InitializationVector)
	if err != nil {
		return nil, fmt.Errorf("failed to read IV from header: %w", err)
	}

	if len(iv) != josecipher.NonceSizeGCM {
		return nil, fmt.Errorf("invalid key encryption IV size %d, expected %d", len(iv), josecipher.NonceSizeGCM)
	}

	tag, err := e.Header.GetBytes(header.AuthenticationTag)
	if err != nil {
		return nil, fmt.Errorf("failed to read tag from header: %w", err)
	}

	cipher, err := josecipher.NewGCM(kek, josecipher.TagSizeGCM)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(e.EncryptedKey)+len(tag))
	sealed = append(sealed, e.EncryptedKey...)
	sealed = append(sealed, tag...)

	cek, err := cipher.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap CEK: %w: %w", ErrInvalidEncryption, err)
	}

	return cek, nil
}

func wrapPBES2(m keyManager, alg, enc jwa.Algorithm, cekSize int, key any, params Header) (wrappedKey, error) {
	password, err := symmetricKey(key)
	if err != nil {
		return wrappedKey{}, err
	}

	p2s, err := randomBytes(pbes2SaltSize)
	if err != nil {
		return wrappedKey{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	iterations := defaultPBES2Iterations
	if _, ok := params[header.PBES2IterationCount]; ok {
		iterations, err = params.GetInt(header.PBES2IterationCount)
		if err != nil {
			return wrappedKey{}, fmt.Errorf("failed to read iteration count from header: %w", err)
		}

		if iterations <= 0 || iterations > maxPBES2Iterations {
			return wrappedKey{}, fmt.Errorf("invalid PBES2 iteration count %d", iterations)
		}
	}

	derivedKey := pbkdf2.Key(password, pbes2Salt(alg, p2s), iterations, m.keySize, m.hash.New)

	cek, err := randomBytes(cekSize)
	if err != nil {
		return wrappedKey{}, fmt.Errorf("failed to generate CEK: %w", err)
	}

	encryptedKey, err := wrapWithAESKW(derivedKey, cek)
	if err != nil {
		return wrappedKey{}, err
	}

	return wrappedKey{
		cek:          cek,
		encryptedKey: encryptedKey,
		params: Header{
			header.PBES2SaltInput:      base64.Encode(p2s),
			header.PBES2IterationCount: iterations,
		},
	}, nil
}

func unwrapPBES2(m keyManager, alg, enc jwa.Algorithm, e *Encryption, key any, cekSize int) ([]byte, error) {
	password, err := symmetricKey(key)
	if err != nil {
		return nil, err
	}

	p2s, err := e.Header.GetBytes(header.PBES2SaltInput)
	if err != nil {
		return nil, fmt.Errorf("failed to read salt from header: %w", err)
	}

	iterations, err := e.Header.GetInt(header.PBES2IterationCount)
	if err != nil {
		return nil, fmt.Errorf("failed to read iteration count from header: %w", err)
	}

	if iterations <= 0 || iterations > maxPBES2Iterations {
		return nil, fmt.Errorf("invalid PBES2 iteration count %d", iterations)
	}

	derivedKey := pbkdf2.Key(password, pbes2Salt(alg, p2s), iterations, m.keySize, m.hash.New)

	return unwrapWithAESKW(derivedKey, e.EncryptedKey)
}

func wrapECDHES(m keyManager, alg, enc jwa.Algorithm, cekSize int, key any, params Header) (wrappedKey, error) {
	remoteKey, err := ecdsaEncryptionKey(key)
	if err != nil {
		return wrappedKey{}, err
	}

	apu, apv, err := partyInfo(params)
	if err != nil {
		return wrappedKey{}, err
	}

	ephemeralKey, err := ecdsa.GenerateKey(remoteKey.Curve, rand.Reader)
	if err != nil {
		return wrappedKey{}, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}

	// Direct key agreement feeds the "enc" value to the KDF.
	//
	// https://datatracker.ietf.org/doc/html/rfc7518#section-4.6.2
	cek, err := josecipher.DeriveECDHES(string(enc), apu, apv, ephemeralKey, remoteKey, cekSize)
	if err != nil {
		return wrappedKey{}, err
	}

	epk, err := jwk.FromECDSAPublicKey(&ephemeralKey.PublicKey)
	if err != nil {
		return wrappedKey{}, err
	}

	return wrappedKey{
		cek:    cek,
		params: Header{header.EphemeralPublicKey: epk},
	}, nil
}

func unwrapECDHES(m keyManager, alg, enc jwa.Algorithm, e *Encryption, key any, cekSize int) ([]byte, error) {
	if len(e.EncryptedKey) != 0 {
		return nil, fmt.Errorf("encrypted key must be empty for direct key agreement")
	}

	localKey, err := ecdsaDecryptionKey(key)
	if err != nil {
		return nil, err
	}

	remoteKey, err := ephemeralPublicKey(e.Header)
	if err != nil {
		return nil, err
	}

	apu, apv, err := partyInfo(e.Header)
	if err != nil {
		return nil, err
	}

	return josecipher.DeriveECDHES(string(enc), apu, apv, localKey, remoteKey, cekSize)
}

func wrapECDHESKW(m keyManager, alg, enc jwa.Algorithm, cekSize int, key any, params Header) (wrappedKey, error) {
	remoteKey, err := ecdsaEncryptionKey(key)
	if err != nil {
		return wrappedKey{}, err
	}

	apu, apv, err := partyInfo(params)
	if err != nil {
		return wrappedKey{}, err
	}

	ephemeralKey, err := ecdsa.GenerateKey(remoteKey.Curve, rand.Reader)
	if err != nil {
		return wrappedKey{}, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}

	// Key agreement with key wrapping feeds the "alg" value to the
	// KDF and derives a wrapping key of the size fixed by the AES Key
	// Wrap variant.
	//
	// https://datatracker.ietf.org/doc/html/rfc7518#section-4.6.2
	wrappingKey, err := josecipher.DeriveECDHES(string(alg), apu, apv, ephemeralKey, remoteKey, m.keySize)
	if err != nil {
		return wrappedKey{}, err
	}

	cek, err := randomBytes(cekSize)
	if err != nil {
		return wrappedKey{}, fmt.Errorf("failed to generate CEK: %w", err)
	}

	encryptedKey, err := wrapWithAESKW(wrappingKey, cek)
	if err != nil {
		return wrappedKey{}, err
	}

	epk, err := jwk.FromECDSAPublicKey(&ephemeralKey.PublicKey)
	if err != nil {
		return wrappedKey{}, err
	}

	return wrappedKey{
		cek:          cek,
		encryptedKey: encryptedKey,
		params:       Header{header.EphemeralPublicKey: epk},
	}, nil
}

func unwrapECDHESKW(m keyManager, alg, enc jwa.Algorithm, e *Encryption, key any, cekSize int) ([]byte, error) {
	localKey, err := ecdsaDecryptionKey(key)
	if err != nil {
		return nil, err
	}

	remoteKey, err := ephemeralPublicKey(e.Header)
	if err != nil {
		return nil, err
	}

	apu, apv, err := partyInfo(e.Header)
	if err != nil {
		return nil, err
	}

	wrappingKey, err := josecipher.DeriveECDHES(string(alg), apu, apv, localKey, remoteKey, m.keySize)
	if err != nil {
		return nil, err
	}

	return unwrapWithAESKW(wrappingKey, e.EncryptedKey)
}

func wrapWithAESKW(kek, cek []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap CEK: %w", err)
	}

	encryptedKey, err := josecipher.KeyWrap(block, cek)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap CEK: %w", err)
	}

	return encryptedKey, nil
}

func unwrapWithAESKW(kek, encryptedKey []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap CEK: %w", err)
	}

	cek, err := josecipher.KeyUnwrap(block, encryptedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap CEK: %w: %w", ErrInvalidEncryption, err)
	}

	return cek, nil
}

// partyInfo reads the optional "apu" and "apv" paramaters, decoded to
// the raw PartyUInfo and PartyVInfo values fed to the Concat KDF.
func partyInfo(h Header) (apu, apv []byte, err error) {
	if _, ok := h[header.AgreementPartyUInfo]; ok {
		apu, err = h.GetBytes(header.AgreementPartyUInfo)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read apu from header: %w", err)
		}
	}

	if _, ok := h[header.AgreementPartyVInfo]; ok {
		apv, err = h.GetBytes(header.AgreementPartyVInfo)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read apv from header: %w", err)
		}
	}

	return apu, apv, nil
}

// ephemeralPublicKey reads the "epk" paramater as an EC public key.
// The point is validated to be on the named curve before use.
func ephemeralPublicKey(h Header) (*ecdsa.PublicKey, error) {
	value, err := h.Get(header.EphemeralPublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read epk from header: %w", err)
	}

	epkJSON, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to read epk from header: %w", err)
	}

	epk, err := jwk.ParseKey(epkJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to parse epk: %w", err)
	}

	ec, ok := epk.(*jwk.EC)
	if !ok {
		return nil, fmt.Errorf("invalid epk: expected an EC key, got %q", epk.KeyType())
	}

	publicKey, err := ec.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("invalid epk: %w", err)
	}

	return publicKey, nil
}

func symmetricKey(key any) ([]byte, error) {
	switch key := key.(type) {
	case []byte:
		return key, nil
	case string:
		return []byte(key), nil
	case *jwk.Symmetric:
		return key.Bytes()
	default:
		return nil, fmt.Errorf("invalid key type %T, expected a symmetric key", key)
	}
}

func rsaEncryptionKey(key any) (*rsa.PublicKey, error) {
	switch key := key.(type) {
	case *rsa.PublicKey:
		return key, nil
	case *rsa.PrivateKey:
		return &key.PublicKey, nil
	case *jwk.RSA:
		publicKey, err := key.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("invalid JWK: %w", err)
		}
		return publicKey, nil
	default:
		return nil, fmt.Errorf("invalid key type %T, expected an RSA public key", key)
	}
}

func rsaDecryptionKey(key any) (*rsa.PrivateKey, error) {
	switch key := key.(type) {
	case *rsa.PrivateKey:
		return key, nil
	case *jwk.RSA:
		privateKey, err := key.PrivateKey()
		if err != nil {
			return nil, fmt.Errorf("invalid JWK: %w", err)
		}
		return privateKey, nil
	default:
		return nil, fmt.Errorf("invalid key type %T, expected an RSA private key", key)
	}
}

func ecdsaEncryptionKey(key any) (*ecdsa.PublicKey, error) {
	switch key := key.(type) {
	case *ecdsa.PublicKey:
		return key, nil
	case *ecdsa.PrivateKey:
		return &key.PublicKey, nil
	case *jwk.EC:
		publicKey, err := key.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("invalid JWK: %w", err)
		}
		return publicKey, nil
	default:
		return nil, fmt.Errorf("invalid key type %T, expected an EC public key", key)
	}
}

func ecdsaDecryptionKey(key any) (*ecdsa.PrivateKey, error) {
	switch key := key.(type) {
	case *ecdsa.PrivateKey:
		return key, nil
	case *jwk.EC:
		privateKey, err := key.PrivateKey()
		if err != nil {
			return nil, fmt.Errorf("invalid JWK: %w", err)
		}
		return privateKey, nil
	default:
		return nil, fmt.Errorf("invalid key type %T, expected an EC private key", key)
	}
}

// pbes2Salt builds the PBKDF2 salt, the algorithm identifier and the
// "p2s" value separated by a zero byte.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.8.1.1
func pbes2Salt(alg jwa.Algorithm, p2s []byte) []byte {
	salt := make([]byte, 0, len(alg)+1+len(p2s))
	salt = append(salt, alg...)
	salt = append(salt, 0x00)
	salt = append(salt, p2s...)

	return salt
}

func randomBytes(size int) ([]byte, error) {
	buff := make([]byte, size)
	if _, err := rand.Read(buff); err != nil {
		return nil, err
	}

	return buff, nil
}

func deflate(data []byte) ([]byte, error) {
	buff := bytes.Buffer{}

	writer, err := flate.NewWriter(&buff, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to compress plaintext: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress plaintext: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress plaintext: %w", err)
	}

	return buff.Bytes(), nil
}

func inflate(data []byte) ([]byte, error) {
	reader := flate.NewReader(bytes.NewReader(data))
	defer reader.Close()

	out, err := io.ReadAll(io.LimitReader(reader, maxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress plaintext: %w", err)
	}

	if len(out) > maxDecompressedSize {
		return nil, fmt.Errorf("decompressed plaintext exceeds %d bytes", maxDecompressedSize)
	}

	return out, nil
}
