package der

import (
	"fmt"
)

// ECPublicPoint returns the uncompressed elliptic curve point
// (0x04 ‖ X ‖ Y) carried by a DER encoded SubjectPublicKeyInfo
// structure, as produced by x509.MarshalPKIXPublicKey.
//
// https://datatracker.ietf.org/doc/html/rfc5480#section-2
func ECPublicPoint(spki []byte) ([]byte, error) {
	value, _, err := Parse(spki)
	if err != nil {
		return nil, fmt.Errorf("der: failed to parse SubjectPublicKeyInfo: %w", err)
	}
	if value.Class != ClassUniversal || value.Tag != TagSequence {
		return nil, fmt.Errorf("der: SubjectPublicKeyInfo is not a SEQUENCE")
	}

	for _, child := range value.Values {
		if child.Class != ClassUniversal || child.Tag != TagBitString {
			continue
		}

		point, err := bitStringBytes(child.Bytes)
		if err != nil {
			return nil, err
		}
		if len(point) == 0 || point[0] != 4 {
			return nil, fmt.Errorf("der: public key is not an uncompressed EC point")
		}
		return point, nil
	}

	return nil, fmt.Errorf("der: SubjectPublicKeyInfo has no BIT STRING")
}

// ECPrivateScalar returns the raw elliptic curve private scalar carried
// by a DER encoded PKCS #8 PrivateKeyInfo structure, as produced by
// x509.MarshalPKCS8PrivateKey. The scalar is the OCTET STRING inside
// the ECPrivateKey structure embedded in the PrivateKeyInfo.
//
// https://datatracker.ietf.org/doc/html/rfc5915#section-3
func ECPrivateScalar(pkcs8 []byte) ([]byte, error) {
	value, _, err := Parse(pkcs8)
	if err != nil {
		return nil, fmt.Errorf("der: failed to parse PrivateKeyInfo: %w", err)
	}
	if value.Class != ClassUniversal || value.Tag != TagSequence {
		return nil, fmt.Errorf("der: PrivateKeyInfo is not a SEQUENCE")
	}

	// The PrivateKeyInfo fields are version INTEGER, AlgorithmIdentifier
	// SEQUENCE, then the privateKey OCTET STRING holding an ECPrivateKey
	// structure, which is parsed recursively for its own OCTET STRING.
	for _, child := range value.Values {
		if child.Class != ClassUniversal || child.Tag != TagOctetString {
			continue
		}

		ecKey, _, err := Parse(child.Bytes)
		if err != nil {
			return nil, fmt.Errorf("der: failed to parse ECPrivateKey: %w", err)
		}
		if ecKey.Class != ClassUniversal || ecKey.Tag != TagSequence {
			return nil, fmt.Errorf("der: ECPrivateKey is not a SEQUENCE")
		}

		for _, field := range ecKey.Values {
			if field.Class == ClassUniversal && field.Tag == TagOctetString {
				return field.Bytes, nil
			}
		}

		return nil, fmt.Errorf("der: ECPrivateKey has no OCTET STRING")
	}

	return nil, fmt.Errorf("der: PrivateKeyInfo has no OCTET STRING")
}

// bitStringBytes strips the leading unused-bits octet from BIT STRING
// contents, requiring the bit count to be a multiple of 8 as it always
// is for key material.
func bitStringBytes(contents []byte) ([]byte, error) {
	if len(contents) == 0 {
		return nil, fmt.Errorf("der: empty BIT STRING")
	}
	if contents[0] != 0 {
		return nil, fmt.Errorf("der: BIT STRING has %d unused bits", contents[0])
	}
	return contents[1:], nil
}
