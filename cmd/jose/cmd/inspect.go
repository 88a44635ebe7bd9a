package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/modscleo4/jose/pkg/base64"
	"github.com/modscleo4/jose/pkg/jwe"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [token]",
	Short: "Decode a token without verifying it",
	Long: `Decode the parts of a compact JWS or JWE token without verifying
the signature or decrypting the payload.

The output is NOT trustworthy: nothing is checked against a key.

Examples:
  jose inspect eyJhbGci...
  jose sign '{"sub":"alice"}' --secret supersecret | jose inspect -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// inspectResult is the structured output of the inspect command.
type inspectResult struct {
	Type   string         `json:"type" yaml:"type"`
	Header map[string]any `json:"header" yaml:"header"`

	// JWS parts.
	Claims        map[string]any `json:"claims,omitempty" yaml:"claims,omitempty"`
	Payload       string         `json:"payload,omitempty" yaml:"payload,omitempty"`
	SignatureSize int            `json:"signatureSize,omitempty" yaml:"signatureSize,omitempty"`

	// JWE parts.
	EncryptedKeySize int `json:"encryptedKeySize,omitempty" yaml:"encryptedKeySize,omitempty"`
	IVSize           int `json:"ivSize,omitempty" yaml:"ivSize,omitempty"`
	CiphertextSize   int `json:"ciphertextSize,omitempty" yaml:"ciphertextSize,omitempty"`
	TagSize          int `json:"tagSize,omitempty" yaml:"tagSize,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	input, err := tokenArg(cmd, args)
	if err != nil {
		return err
	}

	parts := strings.Split(input, ".")

	switch len(parts) {
	case 3:
		return inspectJWS(cmd, parts)
	case 5:
		return inspectJWE(cmd, input)
	default:
		return fmt.Errorf("token has %d segments, expected 3 (JWS) or 5 (JWE)", len(parts))
	}
}

func inspectJWS(cmd *cobra.Command, parts []string) error {
	headerJSON, err := base64.Decode(parts[0])
	if err != nil {
		return fmt.Errorf("failed to decode JOSE header base64: %w", err)
	}

	var headerParams map[string]any
	if err := json.Unmarshal(headerJSON, &headerParams); err != nil {
		return fmt.Errorf("failed to decode JOSE header JSON: %w", err)
	}

	result := inspectResult{
		Type:   "JWS",
		Header: headerParams,
	}

	payload, err := base64.Decode(parts[1])
	if err != nil {
		return fmt.Errorf("failed to decode payload base64: %w", err)
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err == nil {
		result.Claims = claims
	} else {
		result.Payload = string(payload)
	}

	if parts[2] != "" {
		signature, err := base64.Decode(parts[2])
		if err != nil {
			return fmt.Errorf("failed to decode signature base64: %w", err)
		}
		result.SignatureSize = len(signature)
	}

	return writeInspectResult(cmd, result)
}

func inspectJWE(cmd *cobra.Command, input string) error {
	encryption, err := jwe.Parse(input)
	if err != nil {
		return err
	}

	return writeInspectResult(cmd, inspectResult{
		Type:             "JWE",
		Header:           map[string]any(encryption.Header),
		EncryptedKeySize: len(encryption.EncryptedKey),
		IVSize:           len(encryption.IV),
		CiphertextSize:   len(encryption.Ciphertext),
		TagSize:          len(encryption.Tag),
	})
}

func writeInspectResult(cmd *cobra.Command, result inspectResult) error {
	if outputFormat != "text" {
		return formatOutput(cmd, result)
	}

	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Type: %s\n", result.Type)

	fmt.Fprintln(out, "Header:")
	printSorted(out, result.Header)

	if result.Claims != nil {
		fmt.Fprintln(out, "Claims:")
		printSorted(out, result.Claims)
	}
	if result.Payload != "" {
		fmt.Fprintf(out, "Payload: %q\n", result.Payload)
	}

	switch result.Type {
	case "JWS":
		fmt.Fprintf(out, "Signature: %d bytes\n", result.SignatureSize)
	case "JWE":
		fmt.Fprintf(out, "Encrypted key: %d bytes\n", result.EncryptedKeySize)
		fmt.Fprintf(out, "IV: %d bytes\n", result.IVSize)
		fmt.Fprintf(out, "Ciphertext: %d bytes\n", result.CiphertextSize)
		fmt.Fprintf(out, "Tag: %d bytes\n", result.TagSize)
	}

	return nil
}

// printSorted renders the values as indented name/value lines, in
// lexicographic order.
func printSorted(out io.Writer, values map[string]any) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		fmt.Fprintf(out, "  %s: %v\n", name, values[name])
	}
}
