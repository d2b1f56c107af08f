package vote

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/lightvote/lightvote/types"
)

// EncodeInstruction serializes a vote carrying instruction that votes for
// slot with hash. The Vote and UpdateVoteState variants carry a single slot;
// the compact variants encode it as a root-less single lockout. Switch
// variants get a zero switch proof hash.
func EncodeInstruction(tag uint32, slot types.Slot, hash types.BankHash) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteUint32(tag, binary.LittleEndian); err != nil {
		return nil, err
	}

	var err error
	switch tag {
	case InstructionVote, InstructionVoteSwitch:
		err = encodeVote(enc, slot, hash)
	case InstructionUpdateVoteState, InstructionUpdateVoteStateSwitch:
		err = encodeVoteStateUpdate(enc, slot, hash)
	case InstructionCompactUpdateVoteState, InstructionCompactUpdateVoteStateSwitch,
		InstructionTowerSync, InstructionTowerSyncSwitch:
		err = encodeCompact(enc, slot, hash)
		if err == nil && (tag == InstructionTowerSync || tag == InstructionTowerSyncSwitch) {
			err = enc.WriteBytes(hash[:], false) // block id
		}
	default:
		return nil, fmt.Errorf("instruction %s carries no vote", InstructionName(tag))
	}
	if err != nil {
		return nil, err
	}

	switch tag {
	case InstructionVoteSwitch, InstructionUpdateVoteStateSwitch,
		InstructionCompactUpdateVoteStateSwitch, InstructionTowerSyncSwitch:
		var proof types.Hash
		if err := enc.WriteBytes(proof[:], false); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeVote(enc *bin.Encoder, slot types.Slot, hash types.BankHash) error {
	if err := enc.WriteUint64(1, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteUint64(slot, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteBytes(hash[:], false); err != nil {
		return err
	}
	return enc.WriteBool(false)
}

func encodeVoteStateUpdate(enc *bin.Encoder, slot types.Slot, hash types.BankHash) error {
	if err := enc.WriteUint64(1, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteUint64(slot, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteUint32(1, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteBool(false); err != nil {
		return err
	}
	if err := enc.WriteBytes(hash[:], false); err != nil {
		return err
	}
	return enc.WriteBool(false)
}

func encodeCompact(enc *bin.Encoder, slot types.Slot, hash types.BankHash) error {
	if err := enc.WriteUint64(rootNone, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteCompactU16(1); err != nil {
		return err
	}
	varint := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(varint, slot)
	if err := enc.WriteBytes(varint[:n], false); err != nil {
		return err
	}
	if err := enc.WriteUint8(1); err != nil {
		return err
	}
	if err := enc.WriteBytes(hash[:], false); err != nil {
		return err
	}
	return enc.WriteBool(false)
}

// NewTransaction builds and signs a transaction carrying one vote
// instruction. The authority pays the fee and therefore is the voter.
func NewTransaction(
	authority solana.PrivateKey,
	voteAccount solana.PublicKey,
	tag uint32,
	slot types.Slot,
	hash types.BankHash,
	recentBlockhash types.Hash,
) ([]byte, error) {
	data, err := EncodeInstruction(tag, slot, hash)
	if err != nil {
		return nil, err
	}
	return NewTransactionWithData(authority, voteAccount, data, recentBlockhash)
}

// NewTransactionWithData is like NewTransaction but uses data verbatim as the
// instruction payload.
func NewTransactionWithData(
	authority solana.PrivateKey,
	voteAccount solana.PublicKey,
	data []byte,
	recentBlockhash types.Hash,
) ([]byte, error) {
	payer := authority.PublicKey()
	inst := solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(voteAccount).WRITE(),
			solana.Meta(payer).SIGNER(),
		},
		data,
	)
	tx, err := solana.NewTransaction(
		[]solana.Instruction{inst},
		solana.Hash(recentBlockhash),
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, err
	}
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &authority
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx.MarshalBinary()
}
