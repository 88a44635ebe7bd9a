package base64

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Decode returns the base64url decoded bytes from the given input, as
// defined in RFC 4648 Section 5. Missing padding is restored before
// decoding, so both the unpadded wire form and padded input decode.
//
// Empty input is an error. Segments that are legitimately empty on the
// wire, like the signature of an unsecured JWS, are guarded by callers
// before decoding.
func Decode(input string) ([]byte, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("base64: input cannot be empty")
	}

	if padLen := len(input) % 4; padLen > 0 {
		var b strings.Builder
		b.Grow(len(input) + (4 - padLen))
		b.WriteString(input)
		for i := padLen; i < 4; i++ {
			b.WriteByte('=')
		}
		input = b.String()
	}

	result, err := base64.URLEncoding.DecodeString(input)
	if err != nil {
		return nil, fmt.Errorf("base64: invalid base64url input: %w", err)
	}
	return result, nil
}

// Encode returns the base64url encoded string from the given input,
// with the trailing padding stripped as RFC 7515 requires.
//
// Empty input encodes to the empty string, which is how zero-length
// segments (e.g. the encrypted key of a "dir" JWE) appear on the wire.
func Encode(input []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(input), "=")
}
