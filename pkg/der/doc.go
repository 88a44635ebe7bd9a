// Package der implements a small ASN.1 DER (Distinguished Encoding
// Rules) decoder, used to extract raw elliptic curve key material from
// the standard PKCS #8 and SubjectPublicKeyInfo key encodings that
// crypto/x509 produces.
//
// The decoder handles one TLV at a time and reports how many bytes it
// consumed, so callers can walk the contents of SEQUENCE and SET values
// iteratively. Values in the Application, ContextSpecific, and Private
// tag classes are returned as opaque tagged blobs rather than rejected,
// since PKIX structures routinely embed them.
//
// It deliberately decodes only; this package has no encoder.
//
// http://luca.ntop.org/Teaching/Appunti/asn1.html
package der
