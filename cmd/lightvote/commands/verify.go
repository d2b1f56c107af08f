package commands

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/lightvote/lightvote/config"
	"github.com/lightvote/lightvote/libs/cli"
	"github.com/lightvote/lightvote/libs/log"
	lvos "github.com/lightvote/lightvote/libs/os"
	"github.com/lightvote/lightvote/light"
	"github.com/lightvote/lightvote/types"
)

const (
	signatureFlag = "signature"
	keypairFlag   = "keypair"
	toFlag        = "to"
	lamportsFlag  = "lamports"
)

// MakeVerifyCommand constructs the command verifying that a transaction
// landed and that the bank hash of its slot reached the stake threshold.
func MakeVerifyCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the inclusion and finality of a transaction",
		Long: `Verify the inclusion and finality of a transaction.

Either an existing transaction is looked up by --signature, or a transfer
of --lamports from the --keypair account to --to is built, submitted to
the primary and then verified.

The header of the slot the transaction landed in is cross-checked against
every witness. The transaction is proven against the bank hash of that
slot, and the following slots are scanned for votes on the bank hash
until the stake threshold is reached.

Exit codes: 0 finalized, 2 inclusion denied, 3 not finalized,
4 RPC failure, 5 conflicting headers, 1 anything else.`,
		Example: `lightvote verify --signature 5h6x...Q9 -p https://api.mainnet-beta.solana.com
lightvote verify --keypair ~/.config/solana/id.json --to 9xQe...Vz --lamports 1000 -w http://127.0.0.1:8899`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, conf, logger)
		},
	}
	addClientFlags(cmd, conf)
	addOutputFlags(cmd)
	cmd.Flags().String(signatureFlag, "", "base58 signature of the transaction to verify")
	cmd.Flags().String(keypairFlag, "", "keygen file of the account paying the transfer")
	cmd.Flags().String(toFlag, "", "base58 public key receiving the transfer")
	cmd.Flags().Uint64(lamportsFlag, 0, "amount of the transfer")
	return cmd
}

func runVerify(cmd *cobra.Command, conf *config.Config, logger log.Logger) error {
	sigStr, _ := cmd.Flags().GetString(signatureFlag)
	keypair, _ := cmd.Flags().GetString(keypairFlag)
	if (sigStr == "") == (keypair == "") {
		return errors.New("exactly one of --signature and --keypair is required")
	}
	format, _ := cmd.Flags().GetString(cli.OutputFlag)

	env, err := newVerifierEnv(cmd, conf, logger)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := withDeadline(cmd.Context(), conf)
	defer cancel()
	lvos.TrapSignal(logger, func() {
		cancel()
		_ = env.Close()
	})

	var result *types.VerificationResult
	if sigStr != "" {
		sig, err := types.SignatureFromBase58(sigStr)
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", signatureFlag, err)
		}
		result, err = env.client.VerifyTransaction(ctx, sig)
		if err != nil {
			return outcome(nil, err)
		}
	} else {
		raw, err := transferFromFlags(cmd, env)
		if err != nil {
			return err
		}
		result, err = env.client.VerifyTransfer(ctx, raw)
		if err != nil {
			return outcome(nil, err)
		}
	}

	if err := printResult(cmd.OutOrStdout(), format, result); err != nil {
		return err
	}
	return outcome(result, nil)
}

func transferFromFlags(cmd *cobra.Command, env *verifierEnv) ([]byte, error) {
	keypair, _ := cmd.Flags().GetString(keypairFlag)
	toStr, _ := cmd.Flags().GetString(toFlag)
	lamports, _ := cmd.Flags().GetUint64(lamportsFlag)
	if toStr == "" || lamports == 0 {
		return nil, fmt.Errorf("--%s and a positive --%s are required with --%s", toFlag, lamportsFlag, keypairFlag)
	}

	from, err := solana.PrivateKeyFromSolanaKeygenFile(keypair)
	if err != nil {
		return nil, fmt.Errorf("can't read --%s: %w", keypairFlag, err)
	}
	to, err := solana.PublicKeyFromBase58(toStr)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", toFlag, err)
	}

	recent, err := env.client.Primary().LatestBlockhash(cmd.Context())
	if err != nil {
		return nil, outcome(nil, light.ErrRPC{Method: "LatestBlockhash", Provider: env.client.Primary(), Reason: err})
	}
	return buildTransfer(from, to, lamports, recent)
}
