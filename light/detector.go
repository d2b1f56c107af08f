package light

import (
	"context"
	"errors"

	"github.com/lightvote/lightvote/libs/log"
	"github.com/lightvote/lightvote/light/provider"
	"github.com/lightvote/lightvote/light/store"
	"github.com/lightvote/lightvote/types"
)

// detectDivergence is a second wall of defense for the light client.
//
// It takes the header received from the primary and compares its bank hash
// with the header every witness holds for the same slot. A witness holding a
// different bank hash means somebody is on a fork; the run halts with
// ErrConflictingHeaders rather than picking a side.
//
// Witnesses that do not respond, don't have the slot or send an invalid
// header are ignored. If none of them confirmed the header,
// ErrFailedHeaderCrossReferencing is returned.
func (c *Client) detectDivergence(ctx context.Context, h *types.BlockHeader) error {
	if len(c.witnesses) == 0 {
		return nil
	}

	c.logger.Debug("Running detector against header", "slot", h.Slot, "bankHash", h.BankHash,
		"witnesses", len(c.witnesses))

	// launch one goroutine per witness to retrieve the header of the target
	// slot and compare it with the header from the primary
	errc := make(chan error, len(c.witnesses))
	for i, witness := range c.witnesses {
		go c.compareNewHeaderWithWitness(ctx, errc, h, witness, i)
	}

	var (
		headerMatched bool
		conflict      error
	)
	// handle errors from the header comparisons as they come in; every
	// goroutine is drained before returning
	for i := 0; i < cap(errc); i++ {
		err := <-errc

		switch e := err.(type) {
		case nil: // at least one header matched
			headerMatched = true
		case errConflictingHeaders:
			witness := c.witnesses[e.WitnessIndex]
			c.logger.Error("Conflicting header detected", "slot", h.Slot,
				"primary", c.primary, "primaryBankHash", h.BankHash,
				"witness", witness, "witnessBankHash", e.Header.BankHash)
			c.metrics.ForksDetected.Add(1)
			if conflict == nil {
				conflict = ErrConflictingHeaders{
					Slot:    h.Slot,
					H1:      h.BankHash,
					Primary: c.primary,
					H2:      e.Header.BankHash,
					Witness: witness,
				}
			}
		case errBadWitness:
			c.logger.Info("Witness returned an error during header comparison",
				"witness", c.witnesses[e.WitnessIndex], "err", err)
		default:
			c.logger.Error("Unexpected error during header comparison", "err", err)
		}
	}

	if conflict != nil {
		return conflict
	}

	// 1. If we had at least one witness that returned the same header then we
	// conclude that we can trust the header
	if headerMatched {
		return nil
	}

	// 2. Else all witnesses have either not responded, don't have the slot or
	// sent invalid headers.
	return ErrFailedHeaderCrossReferencing
}

// compareNewHeaderWithWitness takes the header from the primary and compares
// it with the header from a specified witness. It sends one of:
//
// 1: errConflictingHeaders -> the witness is on a different fork
// 2: errBadWitness -> the witness has either not responded, doesn't have the
// header or has given us an invalid one
// 3: nil -> the bank hashes of the two headers match
func (c *Client) compareNewHeaderWithWitness(ctx context.Context, errc chan error, h *types.BlockHeader,
	witness provider.Provider, witnessIndex int) {

	wh, err := witness.BlockHeader(ctx, h.Slot)
	if err != nil {
		errc <- errBadWitness{Reason: err, Code: noResponse, WitnessIndex: witnessIndex}
		return
	}

	if err := wh.ValidateBasic(); err != nil || wh.Slot != h.Slot {
		if err == nil {
			err = errors.New("witness returned a header for another slot")
		}
		errc <- errBadWitness{Reason: err, Code: invalidHeader, WitnessIndex: witnessIndex}
		return
	}

	if wh.BankHash != h.BankHash {
		errc <- errConflictingHeaders{Header: wh, WitnessIndex: witnessIndex}
		return
	}

	c.logger.Debug("Matching header received by witness", "slot", h.Slot, "witness", witnessIndex)
	errc <- nil
}

// checkRecordedHeader compares h with the verified header recorded for the
// same slot, if any. A different bank hash is a fork signal. Nothing is
// written.
func (c *Client) checkRecordedHeader(h *types.BlockHeader) error {
	stored, err := c.headerStore.BlockHeader(h.Slot)
	switch {
	case errors.Is(err, store.ErrHeaderNotFound):
		return nil
	case err != nil:
		return err
	case stored.BankHash == h.BankHash:
		return nil
	}
	return c.conflictWithRecorded(h.Slot, h.BankHash, stored.BankHash)
}

// recordHeader saves a verified header. A full store is logged and
// otherwise ignored: the run itself is already decided.
func (c *Client) recordHeader(h *types.BlockHeader, logger log.Logger) error {
	err := c.headerStore.SaveHeader(h)
	var conflict store.ErrConflictingBankHash
	switch {
	case err == nil:
		c.pruneHeaders()
		return nil
	case errors.As(err, &conflict):
		// a concurrent run verified another header for the slot
		return c.conflictWithRecorded(h.Slot, conflict.Received, conflict.Stored)
	case errors.Is(err, store.ErrStoreFull):
		logger.Error("Header store is full, header not recorded", "slot", h.Slot,
			"size", c.headerStore.Size())
		return nil
	default:
		return err
	}
}

func (c *Client) conflictWithRecorded(slot types.Slot, received, recorded types.BankHash) error {
	c.metrics.ForksDetected.Add(1)
	c.logger.Error("Header conflicts with a previously verified one", "slot", slot,
		"bankHash", received, "recorded", recorded)
	return ErrConflictingHeaders{
		Slot:    slot,
		H1:      received,
		Primary: c.primary,
		H2:      recorded,
	}
}
