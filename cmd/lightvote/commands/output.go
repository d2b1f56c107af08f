package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lightvote/lightvote/types"
)

func printResult(w io.Writer, format string, result *types.VerificationResult) error {
	switch format {
	case outputJSON:
		bz, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(bz))
		return err
	case outputText:
	default:
		return fmt.Errorf("unknown output format %q (must be '%s' or '%s')", format, outputText, outputJSON)
	}

	if result.Signature != nil {
		fmt.Fprintf(w, "signature:     %v\n", *result.Signature)
	}
	fmt.Fprintf(w, "slot:          %d\n", result.Slot)
	fmt.Fprintf(w, "bank hash:     %v\n", result.BankHash)
	fmt.Fprintf(w, "status:        %v\n", result.Status)
	if result.Status == types.StatusInclusionDenied {
		fmt.Fprintf(w, "reason:        %s\n", result.Reason)
		return nil
	}
	fmt.Fprintf(w, "stake:         %d / %d (%.2f%%)\n",
		result.AccumulatedStake, result.TotalStake, 100*result.StakeFraction())
	fmt.Fprintf(w, "voters:        %d\n", result.Voters)
	fmt.Fprintf(w, "votes:         %d\n", result.Votes)
	fmt.Fprintf(w, "slots scanned: %d\n", result.SlotsScanned)
	if result.DecodeWarnings > 0 {
		fmt.Fprintf(w, "skipped votes: %d\n", result.DecodeWarnings)
	}
	return nil
}
