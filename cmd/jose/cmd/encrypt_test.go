package cmd

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptDirRoundTrip(t *testing.T) {
	// Cannot run in parallel, uses the shared rootCmd.
	//
	// 16 key bytes, 0x00 through 0x0f.
	secret := "AAECAwQFBgcICQoLDA0ODw"

	encOut, _, err := runCommand(t, "", "encrypt", "attack at dawn",
		"--secret-base64", secret, "--alg", "dir", "--enc", "A128GCM")
	require.NoError(t, err)

	token := strings.TrimSpace(encOut)
	require.Len(t, strings.Split(token, "."), 5)

	decOut, _, err := runCommand(t, "", "decrypt", token, "--secret-base64", secret)
	require.NoError(t, err)
	require.Equal(t, "attack at dawn\n", decOut)
}

func TestEncryptDecryptPBES2(t *testing.T) {
	encOut, _, err := runCommand(t, "", "encrypt", "attack at dawn",
		"--secret", "correct horse battery staple", "--alg", "PBES2-HS256+A128KW", "--enc", "A128CBC-HS256")
	require.NoError(t, err)

	token := strings.TrimSpace(encOut)

	decOut, _, err := runCommand(t, "", "decrypt", token, "--secret", "correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, "attack at dawn\n", decOut)

	_, _, err = runCommand(t, "", "decrypt", token, "--secret", "wrong password")
	require.Error(t, err)
}

func TestEncryptDecryptCompressed(t *testing.T) {
	secret := "AAECAwQFBgcICQoLDA0ODw"
	payload := strings.Repeat("squeeze me, squeeze me ", 64)

	encOut, _, err := runCommand(t, "", "encrypt", payload,
		"--secret-base64", secret, "--alg", "dir", "--enc", "A128GCM", "--zip")
	require.NoError(t, err)

	decOut, _, err := runCommand(t, "", "decrypt", strings.TrimSpace(encOut), "--secret-base64", secret)
	require.NoError(t, err)
	require.Equal(t, payload+"\n", decOut)
}

// testWriteRSAKeyPEM generates a 2048-bit RSA key pair and writes both
// halves as PEM files in a test temp directory.
func testWriteRSAKeyPEM(t *testing.T) (privatePath, publicPath string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()

	privatePath = filepath.Join(dir, "private.pem")
	require.NoError(t, os.WriteFile(privatePath, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), 0600))

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPath = filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(publicPath, pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	}), 0600))

	return privatePath, publicPath
}

func TestEncryptDecryptRSAKeyFiles(t *testing.T) {
	privatePath, publicPath := testWriteRSAKeyPEM(t)

	encOut, _, err := runCommand(t, "", "encrypt", "attack at dawn", "--key", publicPath)
	require.NoError(t, err)

	token := strings.TrimSpace(encOut)

	decOut, _, err := runCommand(t, "", "decrypt", token, "--key", privatePath)
	require.NoError(t, err)
	require.Equal(t, "attack at dawn\n", decOut)
}

func TestEncryptPayloadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.txt")
	require.NoError(t, os.WriteFile(path, []byte("attack at dawn"), 0600))

	secret := "AAECAwQFBgcICQoLDA0ODw"

	encOut, _, err := runCommand(t, "", "encrypt", "--payload", path,
		"--secret-base64", secret, "--alg", "dir", "--enc", "A128GCM")
	require.NoError(t, err)

	decOut, _, err := runCommand(t, "", "decrypt", strings.TrimSpace(encOut), "--secret-base64", secret)
	require.NoError(t, err)
	require.Equal(t, "attack at dawn\n", decOut)
}

func TestDecryptAlgorithmMismatch(t *testing.T) {
	secret := "AAECAwQFBgcICQoLDA0ODw"

	encOut, _, err := runCommand(t, "", "encrypt", "attack at dawn",
		"--secret-base64", secret, "--alg", "dir", "--enc", "A128GCM")
	require.NoError(t, err)

	_, _, err = runCommand(t, "", "decrypt", strings.TrimSpace(encOut),
		"--secret-base64", secret, "--alg", "A128KW")
	require.Error(t, err)
}
