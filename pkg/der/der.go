package der

import (
	"fmt"
)

// Class is the tag class of a DER value.
type Class byte

const (
	ClassUniversal       Class = 0
	ClassApplication     Class = 1
	ClassContextSpecific Class = 2
	ClassPrivate         Class = 3
)

// Tag is the tag number of a DER value. For universal class values the
// tag identifies the ASN.1 type.
type Tag int

const (
	TagBoolean         Tag = 1
	TagInteger         Tag = 2
	TagBitString       Tag = 3
	TagOctetString     Tag = 4
	TagNull            Tag = 5
	TagOID             Tag = 6
	TagUTF8String      Tag = 12
	TagSequence        Tag = 16
	TagSet             Tag = 17
	TagNumericString   Tag = 18
	TagPrintableString Tag = 19
	TagT61String       Tag = 20
	TagIA5String       Tag = 22
	TagUTCTime         Tag = 23
	TagGeneralizedTime Tag = 24
)

// Nesting beyond this depth is rejected rather than recursed into,
// keeping hostile inputs from exhausting the stack. PKIX structures
// are nowhere near this deep.
const maxDepth = 64

// Value is a single decoded DER node. SEQUENCE and SET values carry
// their decoded children in Values; every node retains its raw contents
// octets in Bytes. Values in the Application, ContextSpecific, and
// Private classes are opaque: their contents are kept in Bytes without
// further interpretation.
type Value struct {
	Class    Class
	Tag      Tag
	Compound bool
	Bytes    []byte
	Values   []Value
}

// Parse decodes a single TLV (tag, length, value) from the start of
// data, returning the decoded value and the total number of bytes
// consumed, including the tag and length octets. Callers iterating over
// concatenated TLVs use the consumed count to advance.
//
// Lengths follow DER short form (single byte, high bit clear) and long
// form (high bit set, low 7 bits giving the number of subsequent
// big-endian length bytes). Truncated buffers, malformed lengths, and
// unsupported universal tags are errors; the decoder never returns a
// partially decoded value.
func Parse(data []byte) (*Value, int, error) {
	return parse(data, 0)
}

func parse(data []byte, depth int) (*Value, int, error) {
	if depth > maxDepth {
		return nil, 0, fmt.Errorf("der: nesting exceeds %d levels", maxDepth)
	}

	if len(data) == 0 {
		return nil, 0, fmt.Errorf("der: empty input")
	}

	b := data[0]

	class := Class(b >> 6)
	compound := b&0x20 != 0
	tag := Tag(b & 0x1f)
	if tag == 0x1f {
		return nil, 0, fmt.Errorf("der: high-tag-number form is not supported")
	}

	length, lengthBytes, err := parseLength(data[1:])
	if err != nil {
		return nil, 0, err
	}

	headerLen := 1 + lengthBytes
	if len(data)-headerLen < length {
		return nil, 0, fmt.Errorf("der: truncated value: declared %d content bytes, %d available", length, len(data)-headerLen)
	}

	contents := data[headerLen : headerLen+length]
	consumed := headerLen + length

	value := &Value{
		Class:    class,
		Tag:      tag,
		Compound: compound,
		Bytes:    contents,
	}

	if class != ClassUniversal {
		return value, consumed, nil
	}

	switch tag {
	case TagBoolean, TagInteger, TagBitString, TagOctetString, TagNull,
		TagOID, TagUTF8String, TagNumericString, TagPrintableString,
		TagT61String, TagIA5String, TagUTCTime, TagGeneralizedTime:
		// Primitive contents are kept as-is.
	case TagSequence, TagSet:
		for rest := contents; len(rest) > 0; {
			child, n, err := parse(rest, depth+1)
			if err != nil {
				return nil, 0, err
			}
			value.Values = append(value.Values, *child)
			rest = rest[n:]
		}
	default:
		return nil, 0, fmt.Errorf("der: unsupported universal tag %d", tag)
	}

	return value, consumed, nil
}

func parseLength(data []byte) (int, int, error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("der: missing length octet")
	}

	b := data[0]
	if b&0x80 == 0 {
		return int(b), 1, nil
	}

	numBytes := int(b & 0x7f)
	if numBytes == 0 {
		return 0, 0, fmt.Errorf("der: indefinite length is not permitted")
	}
	if numBytes > 4 {
		return 0, 0, fmt.Errorf("der: length occupies %d bytes", numBytes)
	}
	if len(data)-1 < numBytes {
		return 0, 0, fmt.Errorf("der: truncated length: need %d bytes, have %d", numBytes, len(data)-1)
	}

	length := 0
	for _, octet := range data[1 : 1+numBytes] {
		length = length<<8 | int(octet)
	}

	return length, 1 + numBytes, nil
}
