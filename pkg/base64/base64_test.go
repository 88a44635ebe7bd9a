package base64

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		Name  string
		Input []byte
	}{
		{
			Name:  "plaintext",
			Input: []byte("hello world"),
		},
		{
			Name:  "length not a multiple of three",
			Input: []byte("hello"),
		},
		{
			Name: "random bytes",
			Input: func() []byte {
				numBytes := 32
				buff := make([]byte, numBytes)

				n, err := rand.Read(buff)
				require.NoError(t, err)
				require.Equal(t, n, numBytes)

				t.Logf("random bytes for test: %x", buff)

				return buff
			}(),
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			encoded := Encode(test.Input)
			require.NotEmpty(t, encoded)
			require.NotContains(t, encoded, "=")
			require.NotContains(t, encoded, "+")
			require.NotContains(t, encoded, "/")

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			require.NotEmpty(t, decoded)
			require.Equal(t, test.Input, decoded)
		})
	}
}

func TestDecodePadded(t *testing.T) {
	decoded, err := Decode("aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), decoded)

	unpadded, err := Decode("aGVsbG8")
	require.NoError(t, err)
	require.Equal(t, decoded, unpadded)
}

func TestDecodeEmpty(t *testing.T) {
	decoded, err := Decode("")
	require.Error(t, err)
	require.Nil(t, decoded)
}

func TestDecodeInvalid(t *testing.T) {
	decoded, err := Decode("!!!!")
	require.Error(t, err)
	require.Nil(t, decoded)
}

func TestEncodeEmpty(t *testing.T) {
	require.Equal(t, "", Encode(nil))
	require.Equal(t, "", Encode([]byte{}))
}
