package light_test

import (
	"crypto/sha256"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/require"

	mockp "github.com/lightvote/lightvote/light/provider/mock"
	"github.com/lightvote/lightvote/types"
	"github.com/lightvote/lightvote/vote"
)

// node is a validator of a test network.
type node struct {
	identity    solana.PrivateKey
	voteAccount solana.PublicKey
	stake       uint64
}

func genNodes(t *testing.T, stakes ...uint64) []node {
	t.Helper()
	nodes := make([]node, len(stakes))
	for i, s := range stakes {
		identity, err := solana.NewRandomPrivateKey()
		require.NoError(t, err)
		voteKey, err := solana.NewRandomPrivateKey()
		require.NoError(t, err)
		nodes[i] = node{identity: identity, voteAccount: voteKey.PublicKey(), stake: s}
	}
	return nodes
}

func voteAccounts(nodes []node) []types.VoteAccount {
	accounts := make([]types.VoteAccount, len(nodes))
	for i, n := range nodes {
		accounts[i] = types.VoteAccount{
			VotePubkey:     types.PubKey(n.voteAccount),
			NodePubkey:     types.PubKey(n.identity.PublicKey()),
			ActivatedStake: n.stake,
		}
	}
	return accounts
}

func (n node) vote(t *testing.T, slot types.Slot, hash types.BankHash, recent types.Hash) []byte {
	t.Helper()
	raw, err := vote.NewTransaction(n.identity, n.voteAccount, vote.InstructionTowerSync, slot, hash, recent)
	require.NoError(t, err)
	return raw
}

// truncatedVote is a vote transaction whose instruction data is cut short.
func (n node) truncatedVote(t *testing.T, slot types.Slot, hash types.BankHash, recent types.Hash) []byte {
	t.Helper()
	data, err := vote.EncodeInstruction(vote.InstructionCompactUpdateVoteState, slot, hash)
	require.NoError(t, err)
	raw, err := vote.NewTransactionWithData(n.identity, n.voteAccount, data[:len(data)/2], recent)
	require.NoError(t, err)
	return raw
}

func transferTx(t *testing.T, recent types.Hash) []byte {
	t.Helper()
	from, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	to, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1_000_000, from.PublicKey(), to.PublicKey()).Build()},
		solana.Hash(recent),
		solana.TransactionPayer(from.PublicKey()),
	)
	require.NoError(t, err)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from.PublicKey()) {
			return &from
		}
		return nil
	})
	require.NoError(t, err)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return raw
}

// network is a test chain whose slot 1 carries a transfer. Votes on slot 1
// are added by the test.
type network struct {
	chain    *mockp.Chain
	nodes    []node
	transfer []byte
	sig      types.Signature
	target   *types.BlockHeader
}

func newNetwork(t *testing.T, stakes ...uint64) *network {
	t.Helper()
	chain := mockp.NewChain(sha256.Sum256([]byte(t.Name())))
	transfer := transferTx(t, chain.Tip().Blockhash)
	target, err := chain.AppendSlot(1, transfer)
	require.NoError(t, err)
	sig, err := types.FirstSignature(transfer)
	require.NoError(t, err)
	return &network{
		chain:    chain,
		nodes:    genNodes(t, stakes...),
		transfer: transfer,
		sig:      sig,
		target:   target,
	}
}

// appendVotes produces slot carrying a vote on the target bank hash from each
// of the given nodes.
func (n *network) appendVotes(t *testing.T, slot types.Slot, voters ...int) {
	t.Helper()
	txs := make([][]byte, 0, len(voters))
	for _, i := range voters {
		txs = append(txs, n.nodes[i].vote(t, n.target.Slot, n.target.BankHash, n.chain.Tip().Blockhash))
	}
	n.appendSlot(t, slot, txs...)
}

func (n *network) appendSlot(t *testing.T, slot types.Slot, txs ...[]byte) {
	t.Helper()
	_, err := n.chain.AppendSlot(slot, txs...)
	require.NoError(t, err)
}

// fill appends empty slots up to and including last.
func (n *network) fill(t *testing.T, last types.Slot) {
	t.Helper()
	for s := n.chain.Tip().Slot + 1; s <= last; s++ {
		n.appendSlot(t, s)
	}
}

func (n *network) provider(id string) *mockp.Mock {
	p := mockp.New(id, n.chain)
	p.SetVoteAccounts(voteAccounts(n.nodes), n.target.Slot)
	return p
}
