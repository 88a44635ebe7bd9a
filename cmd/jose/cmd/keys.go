package cmd

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/modscleo4/jose/pkg/base64"
	"github.com/modscleo4/jose/pkg/keyutil"
	"github.com/spf13/cobra"
)

// keyFlags registers the key selection flags shared by the sign, verify,
// encrypt and decrypt commands.
func keyFlags(cmd *cobra.Command) {
	cmd.Flags().String("key", "", "Path to a PEM-encoded key file")
	cmd.Flags().String("secret", "", "Symmetric key or password as a UTF-8 string")
	cmd.Flags().String("secret-base64", "", "Symmetric key as base64url bytes")
}

// hasKeySource reports whether any of the key selection flags is set.
func hasKeySource(cmd *cobra.Command) bool {
	for _, name := range []string{"key", "secret", "secret-base64"} {
		if value, _ := cmd.Flags().GetString(name); value != "" {
			return true
		}
	}
	return false
}

// resolveKey resolves the key from the command's key selection flags.
// Exactly one key source must be used. When private is true a PEM file
// must contain a private key; otherwise the public half of a private
// key is used, so one key file can serve both sides.
func resolveKey(cmd *cobra.Command, private bool) (any, error) {
	keyPath, _ := cmd.Flags().GetString("key")
	secret, _ := cmd.Flags().GetString("secret")
	secretBase64, _ := cmd.Flags().GetString("secret-base64")

	sources := 0
	for _, set := range []bool{keyPath != "", secret != "", secretBase64 != ""} {
		if set {
			sources++
		}
	}

	if sources == 0 {
		return nil, fmt.Errorf("no key provided: use --key, --secret or --secret-base64")
	}
	if sources > 1 {
		return nil, fmt.Errorf("only one of --key, --secret or --secret-base64 may be used")
	}

	switch {
	case keyPath != "":
		return loadPEMKey(keyPath, private)
	case secret != "":
		return secret, nil
	default:
		key, err := base64.Decode(secretBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 secret: %w", err)
		}
		return key, nil
	}
}

// loadPEMKey parses the PEM-encoded key file at the given path.
func loadPEMKey(path string, private bool) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer f.Close()

	if private {
		key, err := keyutil.ParsePrivateKey(f)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key file %q: %w", path, err)
		}
		return key, nil
	}

	key, err := keyutil.ParsePublicKey(f)
	if err != nil {
		// A private key file works for verification too, using its
		// public half.
		if _, serr := f.Seek(0, io.SeekStart); serr == nil {
			if privateKey, perr := keyutil.ParsePrivateKey(f); perr == nil {
				return publicKeyOf(privateKey), nil
			}
		}
		return nil, fmt.Errorf("failed to parse public key file %q: %w", path, err)
	}

	return publicKeyOf(key), nil
}

// publicKeyOf returns the public half of the given key if it is a
// private key, and the key itself otherwise.
func publicKeyOf(key any) any {
	switch key := key.(type) {
	case *rsa.PrivateKey:
		return &key.PublicKey
	case *ecdsa.PrivateKey:
		return &key.PublicKey
	case ed25519.PrivateKey:
		return key.Public()
	default:
		return key
	}
}

// readInput resolves command input that may be given as a positional
// argument, read from a file with the given flag, or piped on standard
// input when the argument is "-".
func readInput(cmd *cobra.Command, args []string, fileFlag string) ([]byte, error) {
	filePath, _ := cmd.Flags().GetString(fileFlag)

	if filePath != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("cannot use both an argument and --%s", fileFlag)
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s file: %w", fileFlag, err)
		}
		return data, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("no input provided: pass an argument, --%s or \"-\" for stdin", fileFlag)
	}

	if args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	return []byte(args[0]), nil
}

// tokenArg resolves a compact token given as a positional argument, or
// piped on standard input when the argument is "-".
func tokenArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("no token provided: pass it as an argument or \"-\" for stdin")
	}

	if args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	return args[0], nil
}
