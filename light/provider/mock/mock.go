package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lightvote/lightvote/light/provider"
	"github.com/lightvote/lightvote/types"
)

// Mock serves a Chain. Methods can be made to fail or to lag.
type Mock struct {
	id string

	mtx       sync.Mutex
	chain     *Chain
	accounts  []types.VoteAccount
	refSlot   types.Slot
	errs      map[string]error
	latency   time.Duration
	landAfter int
	calls     map[string]int
	sent      [][]byte
	headers   map[types.Slot]*types.BlockHeader
}

var _ provider.Provider = (*Mock)(nil)

// New creates a mock provider serving chain.
func New(id string, chain *Chain) *Mock {
	return &Mock{
		id:      id,
		chain:   chain,
		errs:    make(map[string]error),
		calls:   make(map[string]int),
		headers: make(map[types.Slot]*types.BlockHeader),
	}
}

func (p *Mock) String() string {
	return fmt.Sprintf("Mock{%s}", p.id)
}

// SetVoteAccounts sets the stake snapshot returned by VoteAccounts.
func (p *Mock) SetVoteAccounts(accounts []types.VoteAccount, slot types.Slot) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.accounts = accounts
	p.refSlot = slot
}

// SetError makes every call of method fail with err. A nil err clears it.
func (p *Mock) SetError(method string, err error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if err == nil {
		delete(p.errs, method)
		return
	}
	p.errs[method] = err
}

// SetLatency delays Block calls by d.
func (p *Mock) SetLatency(d time.Duration) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.latency = d
}

// LandAfter makes the first n Transaction calls report the transaction as
// not found.
func (p *Mock) LandAfter(n int) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.landAfter = n
}

// ReplaceHeader serves h instead of the chain's header for h.Slot. Other
// providers sharing the chain are not affected.
func (p *Mock) ReplaceHeader(h *types.BlockHeader) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.headers[h.Slot] = h
}

// Calls returns how many times method was called.
func (p *Mock) Calls(method string) int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.calls[method]
}

// Sent returns the transactions submitted through SendTransaction.
func (p *Mock) Sent() [][]byte {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return append([][]byte(nil), p.sent...)
}

func (p *Mock) begin(method string) error {
	p.calls[method]++
	return p.errs[method]
}

func (p *Mock) slotState(slot types.Slot) error {
	if p.chain.Skipped[slot] {
		return provider.ErrSlotSkipped
	}
	return nil
}

func (p *Mock) BlockHeader(ctx context.Context, slot types.Slot) (*types.BlockHeader, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if err := p.begin("BlockHeader"); err != nil {
		return nil, err
	}
	if err := p.slotState(slot); err != nil {
		return nil, err
	}
	if h, ok := p.headers[slot]; ok {
		return h, nil
	}
	h, ok := p.chain.Headers[slot]
	if !ok {
		return nil, provider.ErrBlockNotFound
	}
	return h, nil
}

func (p *Mock) TransactionProof(ctx context.Context, sig types.Signature, slot types.Slot) (*types.InclusionProof, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if err := p.begin("TransactionProof"); err != nil {
		return nil, err
	}
	proof, ok := p.chain.Proofs[sig]
	if !ok || proof.Slot != slot {
		return nil, provider.ErrTransactionNotFound
	}
	return proof, nil
}

func (p *Mock) Block(ctx context.Context, slot types.Slot) (*types.Block, error) {
	p.mtx.Lock()
	latency := p.latency
	err := p.begin("Block")
	p.mtx.Unlock()
	if err != nil {
		return nil, err
	}

	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()
	if err := p.slotState(slot); err != nil {
		return nil, err
	}
	b, ok := p.chain.Blocks[slot]
	if !ok {
		return nil, provider.ErrBlockNotFound
	}
	return b, nil
}

func (p *Mock) VoteAccounts(ctx context.Context) ([]types.VoteAccount, types.Slot, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if err := p.begin("VoteAccounts"); err != nil {
		return nil, 0, err
	}
	return p.accounts, p.refSlot, nil
}

func (p *Mock) Transaction(ctx context.Context, sig types.Signature) (*types.Transaction, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if err := p.begin("Transaction"); err != nil {
		return nil, err
	}
	if p.calls["Transaction"] <= p.landAfter {
		return nil, provider.ErrTransactionNotFound
	}
	tx, ok := p.chain.Transactions[sig]
	if !ok {
		return nil, provider.ErrTransactionNotFound
	}
	return tx, nil
}

func (p *Mock) SendTransaction(ctx context.Context, raw []byte) (types.Signature, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if err := p.begin("SendTransaction"); err != nil {
		return types.Signature{}, err
	}
	sig, err := types.FirstSignature(raw)
	if err != nil {
		return types.Signature{}, provider.ErrBadResponse{Reason: err}
	}
	p.sent = append(p.sent, raw)
	return sig, nil
}

func (p *Mock) LatestBlockhash(ctx context.Context) (types.Hash, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if err := p.begin("LatestBlockhash"); err != nil {
		return types.Hash{}, err
	}
	return p.chain.Tip().Blockhash, nil
}
