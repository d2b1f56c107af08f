package commands

import (
	"errors"
	"fmt"

	"github.com/lightvote/lightvote/light"
	"github.com/lightvote/lightvote/types"
)

// Exit codes of the verify and scan commands.
const (
	ExitFinalized       = 0
	ExitFailure         = 1
	ExitInclusionDenied = 2
	ExitNotFinalized    = 3
	ExitRPC             = 4
	ExitFork            = 5
)

// exitError carries the exit code of a finished command.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }
func (e exitError) Unwrap() error { return e.err }
func (e exitError) ExitCode() int { return e.code }

// outcome turns the result of a verification run into the error returned
// by the command. A finalized result yields nil.
func outcome(result *types.VerificationResult, err error) error {
	if err != nil {
		return exitError{code: errorCode(err), err: err}
	}
	if !result.Status.IsTerminal() {
		return exitError{code: ExitFailure, err: fmt.Errorf("verification stopped while %v", result.Status)}
	}
	switch result.Status {
	case types.StatusFinalized:
		return nil
	case types.StatusInclusionDenied:
		return exitError{code: ExitInclusionDenied,
			err: fmt.Errorf("transaction is not included in bank hash %v: %s", result.BankHash, result.Reason)}
	default:
		return exitError{code: ExitNotFinalized,
			err: fmt.Errorf("bank hash %v got %d of %d stake after %d slots, below the threshold",
				result.BankHash, result.AccumulatedStake, result.TotalStake, result.SlotsScanned)}
	}
}

func errorCode(err error) int {
	var (
		rpcErr   light.ErrRPC
		conflict light.ErrConflictingHeaders
	)
	switch {
	case errors.As(err, &conflict):
		return ExitFork
	case errors.As(err, &rpcErr), errors.Is(err, light.ErrFailedHeaderCrossReferencing):
		return ExitRPC
	default:
		return ExitFailure
	}
}
