package cmd

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modscleo4/jose/pkg/header"
	"github.com/modscleo4/jose/pkg/jwa"
	"github.com/modscleo4/jose/pkg/jwt"
	"github.com/spf13/cobra"
)

var signCmd = &cobra.Command{
	Use:   "sign [claims]",
	Short: "Sign a claims set as a JWT",
	Long: `Sign a JSON claims set as a JWT using the compact JWS serialization.

Claims are given as a JSON object argument, with --claims FILE, or on
standard input when the argument is "-". Registered claims may also be
set with flags, which override the claims input. A random UUID "jti"
claim is added when the claims set has none.

Examples:
  jose sign '{"sub":"alice"}' --secret supersecret --expires-in 1h
  jose sign --claims claims.json --key private.pem --alg RS256
  echo '{"sub":"alice"}' | jose sign - --secret supersecret`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSign,
}

func init() {
	rootCmd.AddCommand(signCmd)

	keyFlags(signCmd)
	signCmd.Flags().String("claims", "", "Path to a JSON file with the claims set")
	signCmd.Flags().String("alg", "", "Signing algorithm (default chosen from the key type)")
	signCmd.Flags().String("issuer", "", `Set the "iss" claim`)
	signCmd.Flags().String("subject", "", `Set the "sub" claim`)
	signCmd.Flags().StringSlice("audience", nil, `Set the "aud" claim`)
	signCmd.Flags().Duration("expires-in", 0, `Set the "exp" claim this far from now`)
	signCmd.Flags().Duration("not-before", 0, `Set the "nbf" claim this far from now`)
	signCmd.Flags().Bool("no-jti", false, `Do not add a generated "jti" claim`)
}

// tokenResult is the structured output of the sign and encrypt commands.
type tokenResult struct {
	Token string `json:"token" yaml:"token"`
}

func runSign(cmd *cobra.Command, args []string) error {
	input, err := readInput(cmd, args, "claims")
	if err != nil {
		return err
	}

	var claims jwt.ClaimsSet
	if err := json.Unmarshal(input, &claims); err != nil {
		return fmt.Errorf("failed to decode claims JSON: %w", err)
	}
	if claims == nil {
		claims = jwt.ClaimsSet{}
	}

	// JSON numbers decode as float64, which the registered time claims
	// do not accept.
	for _, name := range []jwt.ClaimName{jwt.ExpirationTime, jwt.NotBefore, jwt.IssuedAt} {
		if value, ok := claims[name].(float64); ok {
			claims[name] = int64(value)
		}
	}

	if err := applyClaimFlags(cmd, claims); err != nil {
		return err
	}

	key, err := resolveKey(cmd, true)
	if err != nil {
		return err
	}

	algFlag, _ := cmd.Flags().GetString("alg")
	alg := jwa.Algorithm(algFlag)
	if alg == "" {
		alg = defaultSigningAlgorithm(key)
	}

	token, err := jwt.New(header.Parameters{
		header.Type:      jwt.Type,
		header.Algorithm: alg,
	}, claims, key)
	if err != nil {
		return err
	}

	if outputFormat == "text" {
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	}

	return formatOutput(cmd, tokenResult{Token: token.String()})
}

// applyClaimFlags sets registered claims from the command's flags,
// overriding any values from the claims input.
func applyClaimFlags(cmd *cobra.Command, claims jwt.ClaimsSet) error {
	if issuer, _ := cmd.Flags().GetString("issuer"); issuer != "" {
		claims[jwt.Issuer] = issuer
	}
	if subject, _ := cmd.Flags().GetString("subject"); subject != "" {
		claims[jwt.Subject] = subject
	}
	if audience, _ := cmd.Flags().GetStringSlice("audience"); len(audience) > 0 {
		if len(audience) == 1 {
			claims[jwt.Audience] = audience[0]
		} else {
			claims[jwt.Audience] = audience
		}
	}
	if expiresIn, _ := cmd.Flags().GetDuration("expires-in"); expiresIn != 0 {
		claims[jwt.ExpirationTime] = time.Now().Add(expiresIn).Unix()
	}
	if notBefore, _ := cmd.Flags().GetDuration("not-before"); notBefore != 0 {
		claims[jwt.NotBefore] = time.Now().Add(notBefore).Unix()
	}

	if noJTI, _ := cmd.Flags().GetBool("no-jti"); !noJTI {
		if _, ok := claims[jwt.JWTID]; !ok {
			id, err := jwt.NewID()
			if err != nil {
				return err
			}
			claims[jwt.JWTID] = id
		}
	}

	return nil
}

// defaultSigningAlgorithm picks a signing algorithm for the given key
// type: HS256 for symmetric keys, RS256 for RSA, the curve-matched
// ECDSA algorithm for EC keys and EdDSA for Ed25519.
func defaultSigningAlgorithm(key any) jwa.Algorithm {
	switch key := key.(type) {
	case *rsa.PrivateKey:
		return jwa.RS256
	case *ecdsa.PrivateKey:
		switch key.Curve {
		case elliptic.P384():
			return jwa.ES384
		case elliptic.P521():
			return jwa.ES512
		default:
			return jwa.ES256
		}
	case ed25519.PrivateKey:
		return jwa.EdDSA
	default:
		return jwa.HS256
	}
}
