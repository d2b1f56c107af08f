package vote

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/lightvote/lightvote/libs/log"
	"github.com/lightvote/lightvote/types"
)

// DecodeWarning records a vote transaction that could not be turned into a
// vote. It never aborts a scan.
type DecodeWarning struct {
	Slot      types.Slot      // slot of the block carrying the transaction
	TxIndex   int             // position of the transaction in the block
	Signature types.Signature // zero when the transaction is unsigned
	Reason    string
}

func (w DecodeWarning) Error() string {
	return fmt.Sprintf("vote tx #%d in slot %d (%v): %s", w.TxIndex, w.Slot, w.Signature, w.Reason)
}

// DecoderOption sets a parameter of the Decoder.
type DecoderOption func(*Decoder)

// WithSignatureVerification toggles verification of the fee payer signature
// of vote transactions. Enabled by default.
func WithSignatureVerification(enabled bool) DecoderOption {
	return func(d *Decoder) {
		d.verifySignatures = enabled
	}
}

// WithLogger sets the logger used to report skipped transactions.
func WithLogger(l log.Logger) DecoderOption {
	return func(d *Decoder) {
		d.logger = l
	}
}

// Decoder extracts vote records from blocks. It holds no per-block state and
// is safe for concurrent use.
type Decoder struct {
	verifySignatures bool
	logger           log.Logger
}

// NewDecoder returns a Decoder with signature verification enabled.
func NewDecoder(options ...DecoderOption) *Decoder {
	d := &Decoder{
		verifySignatures: true,
		logger:           log.NewNopLogger(),
	}
	for _, o := range options {
		o(d)
	}
	return d
}

// candidate is a decoded vote transaction waiting for signature
// verification.
type candidate struct {
	txIndex int
	records []types.VoteRecord
	payer   solana.PublicKey
	sig     solana.Signature
	message []byte
}

// ExtractVotes returns every vote carried by block, in transaction order,
// along with a warning for every vote transaction that could not be decoded.
// Non-vote transactions are skipped silently.
func (d *Decoder) ExtractVotes(block *types.Block) ([]types.VoteRecord, []DecodeWarning) {
	var records []types.VoteRecord
	warnings := d.Iterate(block, func(v types.VoteRecord) bool {
		records = append(records, v)
		return true
	})
	return records, warnings
}

// Iterate calls fn for every vote in block, in transaction order, until fn
// returns false. It returns the decode warnings for the whole block.
func (d *Decoder) Iterate(block *types.Block, fn func(types.VoteRecord) bool) []DecodeWarning {
	if block == nil {
		return nil
	}

	var (
		candidates []candidate
		warnings   []DecodeWarning
	)
	for i, raw := range block.Transactions {
		c, warn, ok := d.decodeTransaction(block.Slot, i, raw)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		if ok {
			candidates = append(candidates, c)
		}
	}

	valid := make([]bool, len(candidates))
	for i := range valid {
		valid[i] = true
	}
	if d.verifySignatures && len(candidates) > 0 {
		valid = verifyCandidates(candidates)
	}

	stopped := false
	for i, c := range candidates {
		if !valid[i] {
			warnings = append(warnings, DecodeWarning{
				Slot:      block.Slot,
				TxIndex:   c.txIndex,
				Signature: types.Signature(c.sig),
				Reason:    "invalid fee payer signature",
			})
			continue
		}
		if stopped {
			continue
		}
		for _, r := range c.records {
			if !fn(r) {
				stopped = true
				break
			}
		}
	}
	return warnings
}

// decodeTransaction returns ok=false for transactions that are not votes or
// that only produced a warning.
func (d *Decoder) decodeTransaction(slot types.Slot, idx int, raw []byte) (candidate, *DecodeWarning, bool) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		d.logger.Debug("skipping undecodable transaction", "slot", slot, "index", idx, "err", err)
		return candidate{}, nil, false
	}

	var sig solana.Signature
	if len(tx.Signatures) > 0 {
		sig = tx.Signatures[0]
	}
	warn := func(reason string) *DecodeWarning {
		return &DecodeWarning{Slot: slot, TxIndex: idx, Signature: types.Signature(sig), Reason: reason}
	}

	c := candidate{txIndex: idx, sig: sig}
	isVote := false
	for j, inst := range tx.Message.Instructions {
		programID, err := tx.Message.ResolveProgramIDIndex(inst.ProgramIDIndex)
		if err != nil || !programID.Equals(ProgramID) {
			continue
		}
		tag, err := InstructionTag(inst.Data)
		if err != nil {
			return candidate{}, warn(fmt.Sprintf("instruction #%d: %v", j, err)), false
		}
		if !IsVoteInstruction(tag) {
			continue
		}
		isVote = true

		payload, err := DecodeInstruction(inst.Data)
		if err != nil {
			return candidate{}, warn(fmt.Sprintf("instruction #%d: %v", j, err)), false
		}

		var voteAccount types.PubKey
		if len(inst.Accounts) > 0 && int(inst.Accounts[0]) < len(tx.Message.AccountKeys) {
			voteAccount = types.PubKey(tx.Message.AccountKeys[inst.Accounts[0]])
		}
		c.records = append(c.records, types.VoteRecord{
			VoteAccount: voteAccount,
			Slot:        payload.Slot,
			BankHash:    payload.BankHash,
			Signature:   types.Signature(sig),
			ObservedIn:  slot,
		})
	}
	if !isVote {
		return candidate{}, nil, false
	}

	if len(tx.Signatures) == 0 || len(tx.Message.AccountKeys) == 0 {
		return candidate{}, warn("vote transaction is unsigned"), false
	}
	c.payer = tx.Message.AccountKeys[0]
	for k := range c.records {
		c.records[k].Voter = types.PubKey(c.payer)
	}

	msg, err := messageBytes(raw)
	if err != nil {
		return candidate{}, warn(err.Error()), false
	}
	c.message = msg
	return c, nil, true
}
