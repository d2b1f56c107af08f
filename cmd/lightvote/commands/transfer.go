package commands

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/lightvote/lightvote/types"
)

// buildTransfer returns a signed, serialized transaction moving lamports
// from the account of from to to.
func buildTransfer(from solana.PrivateKey, to solana.PublicKey, lamports uint64, recent types.Hash) ([]byte, error) {
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(lamports, from.PublicKey(), to).Build()},
		solana.Hash(recent),
		solana.TransactionPayer(from.PublicKey()),
	)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from.PublicKey()) {
			return &from
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return tx.MarshalBinary()
}
