package cmd

import (
	"fmt"

	"github.com/modscleo4/jose/pkg/jwa"
	"github.com/modscleo4/jose/pkg/jwe"
	"github.com/spf13/cobra"
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt [token]",
	Short: "Decrypt a JWE and print its payload",
	Long: `Decrypt a compact JWE token.

The token is given as an argument or on standard input when the
argument is "-". The expected key management and content encryption
algorithms default to the ones named by the token header; pin them
with --alg and --enc when the peer's algorithms are known.

Examples:
  jose decrypt eyJhbGci... --key private.pem
  jose decrypt eyJhbGci... --secret-base64 AAECAwQFBgcICQoLDA0ODw --alg dir --enc A128GCM`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecrypt,
}

func init() {
	rootCmd.AddCommand(decryptCmd)

	keyFlags(decryptCmd)
	decryptCmd.Flags().String("alg", "", "Expected key management algorithm (default from the token header)")
	decryptCmd.Flags().String("enc", "", "Expected content encryption algorithm (default from the token header)")
}

// payloadResult is the structured output of the decrypt command.
type payloadResult struct {
	Payload string `json:"payload" yaml:"payload"`
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	input, err := tokenArg(cmd, args)
	if err != nil {
		return err
	}

	key, err := resolveKey(cmd, true)
	if err != nil {
		return err
	}

	encryption, err := jwe.Parse(input)
	if err != nil {
		return err
	}

	algFlag, _ := cmd.Flags().GetString("alg")
	alg := jwa.Algorithm(algFlag)
	if alg == "" {
		alg, err = encryption.Header.Algorithm()
		if err != nil {
			return fmt.Errorf("cannot determine key management algorithm: %w", err)
		}
	}

	encFlag, _ := cmd.Flags().GetString("enc")
	enc := jwa.Algorithm(encFlag)
	if enc == "" {
		enc, err = encryption.Header.Encryption()
		if err != nil {
			return fmt.Errorf("cannot determine content encryption algorithm: %w", err)
		}
	}

	plaintext, err := encryption.Decrypt(alg, enc, key)
	if err != nil {
		return err
	}

	if outputFormat == "text" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", plaintext)
		return nil
	}

	return formatOutput(cmd, payloadResult{Payload: string(plaintext)})
}
