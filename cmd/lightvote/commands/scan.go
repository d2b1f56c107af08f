package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightvote/lightvote/config"
	"github.com/lightvote/lightvote/libs/cli"
	"github.com/lightvote/lightvote/libs/log"
	lvos "github.com/lightvote/lightvote/libs/os"
	"github.com/lightvote/lightvote/types"
)

const (
	slotFlag     = "slot"
	bankHashFlag = "bankhash"
)

// MakeScanCommand constructs the command scanning the slots after a given
// slot for votes on a bank hash.
func MakeScanCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the slots after --slot for votes on --bankhash",
		Long: `Scan the slots after --slot for votes on --bankhash.

Nothing is checked about the bank hash itself: the command only reports
how much stake voted for it in the scanned slots. Use verify to check a
transaction end to end.`,
		Example: `lightvote scan --slot 250000000 --bankhash 7Xo2...kP`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, conf, logger)
		},
	}
	addClientFlags(cmd, conf)
	addOutputFlags(cmd)
	cmd.Flags().Uint64(slotFlag, 0, "slot whose bank hash is voted on")
	cmd.Flags().String(bankHashFlag, "", "base58 bank hash of --slot")
	_ = cmd.MarkFlagRequired(slotFlag)
	_ = cmd.MarkFlagRequired(bankHashFlag)
	return cmd
}

func runScan(cmd *cobra.Command, conf *config.Config, logger log.Logger) error {
	slot, _ := cmd.Flags().GetUint64(slotFlag)
	hashStr, _ := cmd.Flags().GetString(bankHashFlag)
	bankHash, err := types.HashFromBase58(hashStr)
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", bankHashFlag, err)
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

	result, err := env.client.ScanVotes(ctx, types.Slot(slot), bankHash)
	if err != nil {
		return outcome(nil, err)
	}
	if err := printResult(cmd.OutOrStdout(), format, result); err != nil {
		return err
	}
	return outcome(result, nil)
}
