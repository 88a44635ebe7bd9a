package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/modscleo4/jose/pkg/jwa"
	"github.com/modscleo4/jose/pkg/jwt"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

var (
	okStatus   = color.New(color.FgGreen, color.Bold).SprintFunc()
	failStatus = color.New(color.FgRed, color.Bold).SprintFunc()
)

var verifyCmd = &cobra.Command{
	Use:   "verify [token]",
	Short: "Verify a JWT and print its claims",
	Long: `Verify the signature and registered claims of a JWT.

The token is given as an argument or on standard input when the
argument is "-". On success the claims are printed; on failure the
reason is printed to standard error and the command exits non-zero.

Examples:
  jose verify eyJhbGci... --secret supersecret
  jose verify eyJhbGci... --key public.pem --issuer example.com
  jose sign '{"sub":"alice"}' --secret s | jose verify - --secret s`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	RunE:          runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	keyFlags(verifyCmd)
	verifyCmd.Flags().StringSlice("alg", nil, "Allowed signing algorithms (default the full signing suite)")
	verifyCmd.Flags().StringSlice("issuer", nil, `Allowed "iss" claim values`)
	verifyCmd.Flags().StringSlice("audience", nil, `Allowed "aud" claim values`)
	verifyCmd.Flags().StringSlice("crit", nil, `Supported extension header names for "crit"`)
	verifyCmd.Flags().Duration("skew", 0, `Clock skew tolerance for "exp" and "nbf"`)
	verifyCmd.Flags().Bool("insecure-allow-none", false, `Allow the "none" algorithm when listed in --alg (NOT for production use)`)
}

// verifyResult is the structured output of the verify command.
type verifyResult struct {
	Valid  bool          `json:"valid" yaml:"valid"`
	Claims jwt.ClaimsSet `json:"claims" yaml:"claims"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	input, err := tokenArg(cmd, args)
	if err != nil {
		return err
	}

	insecureNone, _ := cmd.Flags().GetBool("insecure-allow-none")

	var opts []jwt.VerifyOption

	if hasKeySource(cmd) {
		key, err := resolveKey(cmd, false)
		if err != nil {
			return err
		}
		opts = append(opts, jwt.WithKeys(key))
	} else if !insecureNone {
		return fmt.Errorf("no key provided: use --key, --secret or --secret-base64")
	}

	if algs, _ := cmd.Flags().GetStringSlice("alg"); len(algs) > 0 {
		allowed := make([]jwa.Algorithm, len(algs))
		for i, alg := range algs {
			allowed[i] = jwa.Algorithm(alg)
		}
		opts = append(opts, jwt.WithAllowedAlgorithms(allowed...))
	}
	if issuers, _ := cmd.Flags().GetStringSlice("issuer"); len(issuers) > 0 {
		opts = append(opts, jwt.WithAllowedIssuers(issuers...))
	}
	if audiences, _ := cmd.Flags().GetStringSlice("audience"); len(audiences) > 0 {
		opts = append(opts, jwt.WithAllowedAudiences(audiences...))
	}
	if crit, _ := cmd.Flags().GetStringSlice("crit"); len(crit) > 0 {
		opts = append(opts, jwt.WithSupportedCriticalHeaders(crit...))
	}
	if skew, _ := cmd.Flags().GetDuration("skew"); skew != 0 {
		opts = append(opts, jwt.WithClockSkewTolerance(skew))
	}
	if insecureNone {
		opts = append(opts, jwt.WithAllowInsecureNoneAlgorithm(true))
	}

	token, err := jwt.ParseString(input)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", failStatus("FAIL"), err)
		return err
	}

	if err := token.Verify(opts...); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", failStatus("FAIL"), err)
		return err
	}

	if outputFormat == "text" {
		fmt.Fprintln(cmd.OutOrStdout(), okStatus("OK"))
		printClaims(cmd, token.Claims)
		return nil
	}

	return formatOutput(cmd, verifyResult{Valid: true, Claims: token.Claims})
}

// printClaims renders the claims as indented name/value lines, in
// lexicographic order.
func printClaims(cmd *cobra.Command, claims jwt.ClaimsSet) {
	names := make([]string, 0, len(claims))
	for name := range claims {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %v\n", name, claims[name])
	}
}
