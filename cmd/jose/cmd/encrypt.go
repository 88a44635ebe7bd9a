package cmd

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"

	"github.com/modscleo4/jose/pkg/jwa"
	"github.com/modscleo4/jose/pkg/jwe"
	"github.com/spf13/cobra"
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt [payload]",
	Short: "Encrypt a payload as a JWE",
	Long: `Encrypt a payload using the compact JWE serialization.

The payload is given as an argument, with --payload FILE, or on
standard input when the argument is "-".

Examples:
  jose encrypt 'attack at dawn' --secret-base64 AAECAwQFBgcICQoLDA0ODw --alg dir --enc A128GCM
  jose encrypt --payload report.json --key public.pem --alg RSA-OAEP
  jose encrypt 'attack at dawn' --secret passphrase --alg PBES2-HS256+A128KW`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEncrypt,
}

func init() {
	rootCmd.AddCommand(encryptCmd)

	keyFlags(encryptCmd)
	encryptCmd.Flags().String("payload", "", "Path to a file with the payload")
	encryptCmd.Flags().String("alg", "", "Key management algorithm (default chosen from the key type)")
	encryptCmd.Flags().String("enc", string(jwa.A256GCM), "Content encryption algorithm")
	encryptCmd.Flags().Bool("zip", false, "Compress the payload with DEFLATE before encryption")
	encryptCmd.Flags().String("cty", "", `Set the "cty" content type header`)
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	plaintext, err := readInput(cmd, args, "payload")
	if err != nil {
		return err
	}

	key, err := resolveKey(cmd, false)
	if err != nil {
		return err
	}

	algFlag, _ := cmd.Flags().GetString("alg")
	alg := jwa.Algorithm(algFlag)
	if alg == "" {
		alg = defaultKeyManagementAlgorithm(key)
	}

	encFlag, _ := cmd.Flags().GetString("enc")

	params := jwe.Header{
		jwe.Algorithm:           alg,
		jwe.EncryptionAlgorithm: jwa.Algorithm(encFlag),
	}
	if zip, _ := cmd.Flags().GetBool("zip"); zip {
		params[jwe.CompressionAlgorithm] = jwa.DEF
	}
	if cty, _ := cmd.Flags().GetString("cty"); cty != "" {
		params[jwe.ContentType] = cty
	}

	encryption, err := jwe.Encrypt(params, plaintext, key)
	if err != nil {
		return err
	}

	if outputFormat == "text" {
		fmt.Fprintln(cmd.OutOrStdout(), encryption)
		return nil
	}

	return formatOutput(cmd, tokenResult{Token: encryption.String()})
}

// defaultKeyManagementAlgorithm picks a key management algorithm for the
// given key type: direct encryption for symmetric keys, RSA-OAEP for RSA
// and ECDH-ES for EC keys.
func defaultKeyManagementAlgorithm(key any) jwa.Algorithm {
	switch key.(type) {
	case *rsa.PublicKey:
		return jwa.RSAOAEP
	case *ecdsa.PublicKey:
		return jwa.ECDHES
	default:
		return jwa.Dir
	}
}
