// Package cmd implements the jose CLI commands.
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Version is set at build time.
var Version = "0.1.0"

var outputFormat string

var rootCmd = &cobra.Command{
	Use:   "jose",
	Short: "Sign, verify, encrypt and decrypt JOSE tokens",
	Long: `jose is a command-line interface for JSON Object Signing and
Encryption: JWTs signed per JWS (RFC 7515) and tokens encrypted
per JWE (RFC 7516), both in the compact serialization.

Asymmetric keys are read from PEM files (RSA, ECDSA and Ed25519,
public or private). Symmetric keys are passed as a secret string
or as base64url bytes.`,
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// formatOutput writes data to the command's output stream in the format
// selected by the --output flag. Text format is rendered by each command.
func formatOutput(cmd *cobra.Command, data any) error {
	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case "yaml":
		out, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}
