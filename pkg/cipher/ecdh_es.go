package josecipher

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"fmt"

	"github.com/modscleo4/jose/pkg/der"
)

// DeriveECDHES derives size bytes of key material from an
// ephemeral-static Elliptic Curve Diffie-Hellman agreement followed by
// the Concat KDF with SHA-256, as used by the ECDH-ES family of JWE key
// management algorithms. The alg value is fed to the KDF as the
// AlgorithmID: direct key agreement passes the "enc" header value and
// key agreement with key wrapping passes the "alg" header value. apu
// and apv are the raw agreement party identities.
//
// Which key is local and which is remote is explicit: encrypting
// callers pass the ephemeral private key and the recipient's public
// key, decrypting callers pass the recipient's private key and the
// ephemeral public key from the token header. Both keys must be on the
// same curve.
//
// The shared secret is computed over raw curve material: both keys are
// exported to their standard DER encodings, the scalar and point are
// extracted with the der package, and the agreement itself runs on
// crypto/ecdh.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.6
func DeriveECDHES(alg string, apu, apv []byte, localKey *ecdsa.PrivateKey, remoteKey *ecdsa.PublicKey, size int) ([]byte, error) {
	if localKey == nil || remoteKey == nil {
		return nil, fmt.Errorf("cipher: ECDH-ES requires both a local and a remote key")
	}

	if localKey.Curve != remoteKey.Curve {
		return nil, fmt.Errorf("cipher: ECDH-ES keys are on different curves")
	}

	curve, err := ecdhCurve(localKey.Curve)
	if err != nil {
		return nil, err
	}

	pkcs8, err := x509.MarshalPKCS8PrivateKey(localKey)
	if err != nil {
		return nil, fmt.Errorf("cipher: failed to encode local key: %w", err)
	}

	scalar, err := der.ECPrivateScalar(pkcs8)
	if err != nil {
		return nil, fmt.Errorf("cipher: failed to extract local key scalar: %w", err)
	}

	spki, err := x509.MarshalPKIXPublicKey(remoteKey)
	if err != nil {
		return nil, fmt.Errorf("cipher: failed to encode remote key: %w", err)
	}

	point, err := der.ECPublicPoint(spki)
	if err != nil {
		return nil, fmt.Errorf("cipher: failed to extract remote key point: %w", err)
	}

	priv, err := curve.NewPrivateKey(scalar)
	if err != nil {
		return nil, fmt.Errorf("cipher: invalid ECDH-ES private key: %w", err)
	}

	pub, err := curve.NewPublicKey(point)
	if err != nil {
		return nil, fmt.Errorf("cipher: invalid ECDH-ES public key: %w", err)
	}

	z, err := priv.ECDH(pub)
	if err != nil {
		return nil, fmt.Errorf("cipher: ECDH-ES key agreement failed: %w", err)
	}

	otherInfo := ConcatKDFOtherInfo(alg, apu, apv, size*8)

	return DeriveConcatKDF(crypto.SHA256, z, otherInfo, size), nil
}

func ecdhCurve(curve elliptic.Curve) (ecdh.Curve, error) {
	switch curve {
	case elliptic.P256():
		return ecdh.P256(), nil
	case elliptic.P384():
		return ecdh.P384(), nil
	case elliptic.P521():
		return ecdh.P521(), nil
	default:
		return nil, fmt.Errorf("cipher: unsupported curve %q", curve.Params().Name)
	}
}
