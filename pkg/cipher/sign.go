package josecipher

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"math/big"
)

// SignHMAC computes the HMAC tag over data with the given hash and key.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.2
func SignHMAC(hash crypto.Hash, key, data []byte) []byte {
	h := hmac.New(hash.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// VerifyHMAC reports whether tag is the HMAC of data under key,
// comparing in constant time.
func VerifyHMAC(hash crypto.Hash, key, data, tag []byte) bool {
	return hmac.Equal(SignHMAC(hash, key, data), tag)
}

// SignRSAPKCS1v15 signs the digest of data using RSASSA-PKCS1-v1_5.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.3
func SignRSAPKCS1v15(hash crypto.Hash, key *rsa.PrivateKey, data []byte) ([]byte, error) {
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, hash, digest(hash, data))
	if err != nil {
		return nil, fmt.Errorf("cipher: RSA signing failed: %w", err)
	}

	return signature, nil
}

// VerifyRSAPKCS1v15 reports whether signature is a valid
// RSASSA-PKCS1-v1_5 signature over data.
func VerifyRSAPKCS1v15(hash crypto.Hash, key *rsa.PublicKey, data, signature []byte) bool {
	return rsa.VerifyPKCS1v15(key, hash, digest(hash, data), signature) == nil
}

// SignRSAPSS signs the digest of data using RSASSA-PSS with the salt
// length equal to the hash length, as JWS requires.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.5
func SignRSAPSS(hash crypto.Hash, key *rsa.PrivateKey, data []byte) ([]byte, error) {
	signature, err := rsa.SignPSS(rand.Reader, key, hash, digest(hash, data), &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       hash,
	})
	if err != nil {
		return nil, fmt.Errorf("cipher: RSA-PSS signing failed: %w", err)
	}

	return signature, nil
}

// VerifyRSAPSS reports whether signature is a valid RSASSA-PSS
// signature over data.
func VerifyRSAPSS(hash crypto.Hash, key *rsa.PublicKey, data, signature []byte) bool {
	return rsa.VerifyPSS(key, hash, digest(hash, data), signature, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       hash,
	}) == nil
}

// SignECDSA signs the digest of data, returning the signature in the
// fixed-length R || S form JWS uses rather than ASN.1 DER. R and S are
// each left padded with zeros to the byte length of the curve order, so
// the signature is twice that length.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.4
func SignECDSA(hash crypto.Hash, key *ecdsa.PrivateKey, data []byte) ([]byte, error) {
	r, s, err := ecdsa.Sign(rand.Reader, key, digest(hash, data))
	if err != nil {
		return nil, fmt.Errorf("cipher: ECDSA signing failed: %w", err)
	}

	keyBytes := curveByteSize(key.Curve.Params().BitSize)

	signature := make([]byte, keyBytes*2)
	r.FillBytes(signature[:keyBytes])
	s.FillBytes(signature[keyBytes:])

	return signature, nil
}

// VerifyECDSA reports whether signature is a valid R || S form ECDSA
// signature over data.
func VerifyECDSA(hash crypto.Hash, key *ecdsa.PublicKey, data, signature []byte) bool {
	keyBytes := curveByteSize(key.Curve.Params().BitSize)
	if len(signature) != keyBytes*2 {
		return false
	}

	r := new(big.Int).SetBytes(signature[:keyBytes])
	s := new(big.Int).SetBytes(signature[keyBytes:])

	return ecdsa.Verify(key, digest(hash, data), r, s)
}

func curveByteSize(bitSize int) int {
	return (bitSize + 7) / 8
}

func digest(hash crypto.Hash, data []byte) []byte {
	h := hash.New()
	h.Write(data)
	return h.Sum(nil)
}
