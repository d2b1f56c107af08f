package light

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lightvote/lightvote/libs/log"
	lvmath "github.com/lightvote/lightvote/libs/math"
	"github.com/lightvote/lightvote/light/provider"
	"github.com/lightvote/lightvote/stake"
	"github.com/lightvote/lightvote/types"
	"github.com/lightvote/lightvote/vote"
)

// fetchResult is the outcome of fetching one slot. A skipped slot has
// neither a block nor an error.
type fetchResult struct {
	slot    types.Slot
	block   *types.Block
	skipped bool
	err     error
}

// scan folds the votes of the slotCount slots following result.Slot into a
// tally for result.BankHash. Blocks are fetched concurrently but folded
// strictly in slot order, and the scan stops at the first slot after which
// the bank hash is final. A deadline on ctx ends the scan early with a
// timed out result.
func (c *Client) scan(ctx context.Context, result *types.VerificationResult,
	logger log.Logger) (*types.VerificationResult, error) {

	start := time.Now()
	result.Status = types.StatusVoteScanning

	if _, err := lvmath.SafeAddUint64(result.Slot, uint64(c.slotCount)); err != nil {
		return nil, fmt.Errorf("cannot scan %d slots after slot %d: %w", c.slotCount, result.Slot, err)
	}

	accounts, refSlot, err := c.primary.VoteAccounts(ctx)
	if err != nil {
		return nil, c.rpcError("VoteAccounts", err)
	}
	ledger, err := stake.FromVoteAccounts(refSlot, accounts)
	if err != nil {
		return nil, c.rpcError("VoteAccounts", provider.ErrBadResponse{Reason: err})
	}
	tally, err := vote.NewTally(ledger, c.threshold)
	if err != nil {
		return nil, err
	}
	result.TotalStake = ledger.TotalStake()

	logger.Info("Scanning votes", "from", result.Slot+1, "slots", c.slotCount,
		"validators", ledger.Size(), "totalStake", ledger.TotalStake(), "threshold", c.threshold)

	fetchCtx, cancel := context.WithCancel(ctx)
	results, done := c.fetchBlocks(fetchCtx, result.Slot+1, c.slotCount, logger)
	defer func() {
		cancel()
		<-done
	}()

	for _, ch := range results {
		r := <-ch
		if r.err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logger.Info("Deadline reached, stopping scan", "slot", r.slot, "scanned", result.SlotsScanned)
				break
			}
			return nil, c.rpcError("Block", r.err)
		}

		result.SlotsScanned++
		c.metrics.SlotsScanned.Add(1)
		if r.skipped {
			logger.Debug("Slot was skipped", "slot", r.slot)
		} else {
			c.foldBlock(tally, ledger, r.block, result, logger)
		}
		if c.onSlotScanned != nil {
			c.onSlotScanned(r.slot)
		}

		if tally.IsFinalized(result.BankHash) {
			logger.Debug("Bank hash reached the threshold", "slot", r.slot)
			break
		}
	}

	result.AccumulatedStake, result.TotalStake = tally.Fraction(result.BankHash)
	result.Voters = tally.Voters(result.BankHash)
	result.FinalityConfirmed = tally.IsFinalized(result.BankHash)
	if result.FinalityConfirmed {
		result.Status = types.StatusFinalized
	} else {
		result.Status = types.StatusTimedOut
	}

	c.metrics.StakeFraction.Set(result.StakeFraction())
	c.metrics.ScanDuration.Observe(time.Since(start).Seconds())
	c.metrics.Verifications.With("status", result.Status.String()).Add(1)

	logger.Info("Scan finished", "status", result.Status, "stake", result.AccumulatedStake,
		"totalStake", result.TotalStake, "voters", result.Voters, "scanned", result.SlotsScanned,
		"warnings", result.DecodeWarnings)

	return result, nil
}

// foldBlock records every vote of block that is about result.Slot. Votes for
// another bank hash of that slot are recorded too, since the tally keeps one
// count per bank hash.
func (c *Client) foldBlock(tally *vote.Tally, ledger *stake.Ledger, block *types.Block,
	result *types.VerificationResult, logger log.Logger) {

	warnings := c.decoder.Iterate(block, func(v types.VoteRecord) bool {
		c.metrics.VotesDecoded.Add(1)
		if v.Slot != result.Slot {
			return true
		}
		if v.BankHash != result.BankHash {
			logger.Info("Vote for a different bank hash", "voter", v.Voter, "bankHash", v.BankHash,
				"observedIn", v.ObservedIn)
		} else {
			result.Votes++
		}
		if !tally.RecordVote(v) {
			return true
		}
		if ledger.Has(v.Voter) {
			logger.Debug("Recorded vote", "voter", v.Voter, "bankHash", v.BankHash, "observedIn", v.ObservedIn)
		} else {
			logger.Debug("Vote from a validator outside the stake snapshot", "voter", v.Voter,
				"referenceSlot", ledger.ReferenceSlot())
		}
		return true
	})

	for _, w := range warnings {
		logger.Info("Skipping undecodable vote transaction", "slot", w.Slot, "tx", w.TxIndex, "reason", w.Reason)
	}
	result.DecodeWarnings += len(warnings)
	c.metrics.DecodeWarnings.Add(float64(len(warnings)))
}

// fetchBlocks fetches count consecutive slots starting at first, with at
// most maxConcurrency requests in flight. Every returned channel receives
// exactly one result; done is closed once no fetch is running anymore.
func (c *Client) fetchBlocks(ctx context.Context, first types.Slot, count int,
	logger log.Logger) ([]chan fetchResult, <-chan struct{}) {

	results := make([]chan fetchResult, count)
	for i := range results {
		results[i] = make(chan fetchResult, 1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		var g errgroup.Group
		g.SetLimit(c.maxConcurrency)
		for i, out := range results {
			slot := first + types.Slot(i)
			out := out
			if err := ctx.Err(); err != nil {
				out <- fetchResult{slot: slot, err: err}
				continue
			}
			g.Go(func() error {
				out <- c.fetchBlock(ctx, slot, logger)
				return nil
			})
		}
		_ = g.Wait()
	}()

	return results, done
}

// fetchBlock polls the primary until the block of slot is produced, the slot
// is reported skipped or ctx is done.
func (c *Client) fetchBlock(ctx context.Context, slot types.Slot, logger log.Logger) fetchResult {
	for {
		b, err := c.primary.Block(ctx, slot)
		switch {
		case err == nil:
			if b.Slot != slot {
				return fetchResult{slot: slot, err: provider.ErrBadResponse{
					Reason: fmt.Errorf("asked for slot %d, got %d", slot, b.Slot),
				}}
			}
			return fetchResult{slot: slot, block: b}
		case errors.Is(err, provider.ErrSlotSkipped):
			return fetchResult{slot: slot, skipped: true}
		case errors.Is(err, provider.ErrBlockNotFound):
			logger.Debug("Block not available yet", "slot", slot)
		default:
			return fetchResult{slot: slot, err: err}
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fetchResult{slot: slot, err: ctx.Err()}
		case <-timer.C:
		}
	}
}
