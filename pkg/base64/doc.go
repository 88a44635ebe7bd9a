// Package base64 implements the base64url encoding used throughout the
// compact JOSE serializations, as defined in RFC 4648 Section 5.
//
// Encode produces the URL-safe alphabet (- and _ in place of + and /)
// with the trailing padding stripped, which is the form RFC 7515
// requires on the wire. Decode restores any missing padding before
// decoding, so it accepts both unpadded and padded input.
//
// http://www.rfc-editor.org/rfc/rfc4648#section-5
package base64
