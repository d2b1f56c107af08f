package provider

import (
	"context"

	"github.com/lightvote/lightvote/types"
)

//go:generate ../../scripts/mockery_generate.sh Provider

// Provider is a full node the client talks to. Nothing it returns is trusted:
// headers are cross-checked against witnesses, proofs are verified locally
// and votes are weighed against the stake snapshot.
type Provider interface {
	// BlockHeader returns the header of slot, including the data needed to
	// recompute its bank hash.
	//
	// ErrSlotSkipped is returned if no block was produced at slot and
	// ErrBlockNotFound if the node does not have it (yet).
	BlockHeader(ctx context.Context, slot types.Slot) (*types.BlockHeader, error)

	// TransactionProof returns the inclusion proof of the transaction
	// identified by sig into the bank hash of slot.
	TransactionProof(ctx context.Context, sig types.Signature, slot types.Slot) (*types.InclusionProof, error)

	// Block returns the raw transactions of slot. Same errors as
	// BlockHeader.
	Block(ctx context.Context, slot types.Slot) (*types.Block, error)

	// VoteAccounts returns the current and delinquent vote accounts along
	// with the slot the snapshot was taken at.
	VoteAccounts(ctx context.Context) ([]types.VoteAccount, types.Slot, error)

	// Transaction returns the transaction identified by sig and the slot it
	// landed in. ErrTransactionNotFound is returned while it has not landed.
	Transaction(ctx context.Context, sig types.Signature) (*types.Transaction, error)

	// SendTransaction submits a signed serialized transaction.
	SendTransaction(ctx context.Context, raw []byte) (types.Signature, error)

	// LatestBlockhash returns a blockhash usable for new transactions.
	LatestBlockhash(ctx context.Context) (types.Hash, error)

	// String returns the address of the node.
	String() string
}
