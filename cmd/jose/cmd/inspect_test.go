package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInspectJWS(t *testing.T) {
	// Cannot run in parallel, uses the shared rootCmd.
	signOut, _, err := runCommand(t, "", "sign", `{"sub":"alice","jti":"fixed"}`, "--secret", "supersecret")
	require.NoError(t, err)

	stdout, _, err := runCommand(t, "", "inspect", strings.TrimSpace(signOut))
	require.NoError(t, err)
	require.Contains(t, stdout, "Type: JWS")
	require.Contains(t, stdout, "alg: HS256")
	require.Contains(t, stdout, "typ: JWT")
	require.Contains(t, stdout, "sub: alice")
	require.Contains(t, stdout, "Signature: 32 bytes")
}

func TestInspectJWE(t *testing.T) {
	encOut, _, err := runCommand(t, "", "encrypt", "attack at dawn",
		"--secret-base64", "AAECAwQFBgcICQoLDA0ODw", "--alg", "dir", "--enc", "A128GCM")
	require.NoError(t, err)

	stdout, _, err := runCommand(t, "", "inspect", strings.TrimSpace(encOut))
	require.NoError(t, err)
	require.Contains(t, stdout, "Type: JWE")
	require.Contains(t, stdout, "alg: dir")
	require.Contains(t, stdout, "enc: A128GCM")
	require.Contains(t, stdout, "Encrypted key: 0 bytes")
	require.Contains(t, stdout, "IV: 12 bytes")
	require.Contains(t, stdout, "Tag: 16 bytes")
}

func TestInspectFromStdin(t *testing.T) {
	signOut, _, err := runCommand(t, "", "sign", `{"sub":"alice"}`, "--secret", "supersecret")
	require.NoError(t, err)

	stdout, _, err := runCommand(t, signOut, "inspect", "-")
	require.NoError(t, err)
	require.Contains(t, stdout, "Type: JWS")
}

func TestInspectSegmentCount(t *testing.T) {
	_, _, err := runCommand(t, "", "inspect", "a.b.c.d")
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected 3 (JWS) or 5 (JWE)")
}

func TestInspectJSONOutput(t *testing.T) {
	signOut, _, err := runCommand(t, "", "sign", `{"sub":"alice"}`, "--secret", "supersecret")
	require.NoError(t, err)

	stdout, _, err := runCommand(t, "", "inspect", strings.TrimSpace(signOut), "--output", "json")
	require.NoError(t, err)

	var result struct {
		Type   string         `json:"type"`
		Header map[string]any `json:"header"`
		Claims map[string]any `json:"claims"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.Equal(t, "JWS", result.Type)
	require.Equal(t, "HS256", result.Header["alg"])
	require.Equal(t, "alice", result.Claims["sub"])
}
