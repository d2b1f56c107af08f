package vote

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/lightvote/lightvote/types"
)

// ProgramID is the address of the native vote program.
var ProgramID = solana.MustPublicKeyFromBase58("Vote111111111111111111111111111111111111111")

// Vote program instruction tags (u32 LE prefix of the instruction data).
const (
	InstructionVote                         uint32 = 2
	InstructionVoteSwitch                   uint32 = 6
	InstructionUpdateVoteState              uint32 = 8
	InstructionUpdateVoteStateSwitch        uint32 = 9
	InstructionCompactUpdateVoteState       uint32 = 12
	InstructionCompactUpdateVoteStateSwitch uint32 = 13
	InstructionTowerSync                    uint32 = 14
	InstructionTowerSyncSwitch              uint32 = 15
)

// maxLockouts bounds decoded vote and lockout lists. The on-chain tower holds
// at most 31 entries; anything far beyond that is garbage.
const maxLockouts = 1024

// rootNone is the compact encoding of a missing tower root.
const rootNone = math.MaxUint64

var errNoSlots = errors.New("vote carries no slots")

// IsVoteInstruction reports whether tag is one of the instructions that carry
// a vote. Other vote program instructions (authorize, withdraw...) are
// ignored.
func IsVoteInstruction(tag uint32) bool {
	switch tag {
	case InstructionVote, InstructionVoteSwitch,
		InstructionUpdateVoteState, InstructionUpdateVoteStateSwitch,
		InstructionCompactUpdateVoteState, InstructionCompactUpdateVoteStateSwitch,
		InstructionTowerSync, InstructionTowerSyncSwitch:
		return true
	}
	return false
}

// InstructionName returns a human readable name for a vote instruction tag.
func InstructionName(tag uint32) string {
	switch tag {
	case InstructionVote:
		return "Vote"
	case InstructionVoteSwitch:
		return "VoteSwitch"
	case InstructionUpdateVoteState:
		return "UpdateVoteState"
	case InstructionUpdateVoteStateSwitch:
		return "UpdateVoteStateSwitch"
	case InstructionCompactUpdateVoteState:
		return "CompactUpdateVoteState"
	case InstructionCompactUpdateVoteStateSwitch:
		return "CompactUpdateVoteStateSwitch"
	case InstructionTowerSync:
		return "TowerSync"
	case InstructionTowerSyncSwitch:
		return "TowerSyncSwitch"
	default:
		return fmt.Sprintf("Unknown(%d)", tag)
	}
}

// Payload is the part of a vote instruction the client cares about: the
// newest slot voted on and the bank hash asserted for it.
type Payload struct {
	Tag      uint32
	Slot     types.Slot
	BankHash types.BankHash
}

// InstructionTag reads the u32 tag of vote instruction data.
func InstructionTag(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("instruction data too short: %d bytes", len(data))
	}
	return binary.LittleEndian.Uint32(data[:4]), nil
}

// DecodeInstruction decodes the payload of a vote carrying instruction.
// Trailing bytes are rejected.
func DecodeInstruction(data []byte) (Payload, error) {
	tag, err := InstructionTag(data)
	if err != nil {
		return Payload{}, err
	}

	dec := bin.NewBinDecoder(data[4:])
	p := Payload{Tag: tag}
	switch tag {
	case InstructionVote, InstructionVoteSwitch:
		p.Slot, p.BankHash, err = decodeVote(dec)
	case InstructionUpdateVoteState, InstructionUpdateVoteStateSwitch:
		p.Slot, p.BankHash, err = decodeVoteStateUpdate(dec)
	case InstructionCompactUpdateVoteState, InstructionCompactUpdateVoteStateSwitch,
		InstructionTowerSync, InstructionTowerSyncSwitch:
		p.Slot, p.BankHash, err = decodeCompact(dec)
		if err == nil && (tag == InstructionTowerSync || tag == InstructionTowerSyncSwitch) {
			_, err = readHash(dec) // block id
		}
	default:
		return Payload{}, fmt.Errorf("instruction %s carries no vote", InstructionName(tag))
	}
	if err != nil {
		return Payload{}, fmt.Errorf("%s: %w", InstructionName(tag), err)
	}

	switch tag {
	case InstructionVoteSwitch, InstructionUpdateVoteStateSwitch,
		InstructionCompactUpdateVoteStateSwitch, InstructionTowerSyncSwitch:
		if _, err := readHash(dec); err != nil {
			return Payload{}, fmt.Errorf("%s: switch proof: %w", InstructionName(tag), err)
		}
	}

	if dec.Remaining() != 0 {
		return Payload{}, fmt.Errorf("%s: %d trailing bytes", InstructionName(tag), dec.Remaining())
	}
	return p, nil
}

// Vote { slots: Vec<Slot>, hash: Hash, timestamp: Option<UnixTimestamp> }
func decodeVote(dec *bin.Decoder) (types.Slot, types.BankHash, error) {
	n, err := readLength(dec)
	if err != nil {
		return 0, types.BankHash{}, fmt.Errorf("slots: %w", err)
	}
	if n == 0 {
		return 0, types.BankHash{}, errNoSlots
	}
	var last types.Slot
	for i := 0; i < n; i++ {
		s, err := dec.ReadUint64(binary.LittleEndian)
		if err != nil {
			return 0, types.BankHash{}, fmt.Errorf("slot #%d: %w", i, err)
		}
		last = s
	}
	hash, err := readHash(dec)
	if err != nil {
		return 0, types.BankHash{}, err
	}
	if err := skipTimestamp(dec); err != nil {
		return 0, types.BankHash{}, err
	}
	return last, hash, nil
}

// VoteStateUpdate { lockouts: VecDeque<Lockout>, root: Option<Slot>,
// hash: Hash, timestamp: Option<UnixTimestamp> }
func decodeVoteStateUpdate(dec *bin.Decoder) (types.Slot, types.BankHash, error) {
	n, err := readLength(dec)
	if err != nil {
		return 0, types.BankHash{}, fmt.Errorf("lockouts: %w", err)
	}
	if n == 0 {
		return 0, types.BankHash{}, errNoSlots
	}
	var last types.Slot
	for i := 0; i < n; i++ {
		s, err := dec.ReadUint64(binary.LittleEndian)
		if err != nil {
			return 0, types.BankHash{}, fmt.Errorf("lockout #%d: %w", i, err)
		}
		if _, err := dec.ReadUint32(binary.LittleEndian); err != nil {
			return 0, types.BankHash{}, fmt.Errorf("lockout #%d: %w", i, err)
		}
		last = s
	}
	hasRoot, err := dec.ReadBool()
	if err != nil {
		return 0, types.BankHash{}, fmt.Errorf("root: %w", err)
	}
	if hasRoot {
		if _, err := dec.ReadUint64(binary.LittleEndian); err != nil {
			return 0, types.BankHash{}, fmt.Errorf("root: %w", err)
		}
	}
	hash, err := readHash(dec)
	if err != nil {
		return 0, types.BankHash{}, err
	}
	if err := skipTimestamp(dec); err != nil {
		return 0, types.BankHash{}, err
	}
	return last, hash, nil
}

// Compact layout shared by CompactUpdateVoteState and TowerSync:
// root: Slot (u64::MAX when absent), lockout_offsets: ShortVec<{offset:
// varint u64, confirmation_count: u8}>, hash: Hash, timestamp:
// Option<UnixTimestamp>.
func decodeCompact(dec *bin.Decoder) (types.Slot, types.BankHash, error) {
	root, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return 0, types.BankHash{}, fmt.Errorf("root: %w", err)
	}
	slot := root
	if root == rootNone {
		slot = 0
	}

	n, err := dec.ReadCompactU16()
	if err != nil {
		return 0, types.BankHash{}, fmt.Errorf("lockout offsets: %w", err)
	}
	if n == 0 {
		return 0, types.BankHash{}, errNoSlots
	}
	if n > maxLockouts {
		return 0, types.BankHash{}, fmt.Errorf("%d lockout offsets, max %d", n, maxLockouts)
	}
	for i := 0; i < n; i++ {
		offset, err := dec.ReadUvarint64()
		if err != nil {
			return 0, types.BankHash{}, fmt.Errorf("lockout offset #%d: %w", i, err)
		}
		if slot > math.MaxUint64-offset {
			return 0, types.BankHash{}, fmt.Errorf("lockout offset #%d overflows slot", i)
		}
		slot += offset
		if _, err := dec.ReadUint8(); err != nil {
			return 0, types.BankHash{}, fmt.Errorf("lockout offset #%d: %w", i, err)
		}
	}

	hash, err := readHash(dec)
	if err != nil {
		return 0, types.BankHash{}, err
	}
	if err := skipTimestamp(dec); err != nil {
		return 0, types.BankHash{}, err
	}
	return slot, hash, nil
}

func readLength(dec *bin.Decoder) (int, error) {
	n, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return 0, err
	}
	if n > maxLockouts {
		return 0, fmt.Errorf("length %d exceeds %d", n, maxLockouts)
	}
	return int(n), nil
}

func readHash(dec *bin.Decoder) (types.BankHash, error) {
	b, err := dec.ReadNBytes(types.HashSize)
	if err != nil {
		return types.BankHash{}, fmt.Errorf("hash: %w", err)
	}
	return types.HashFromBytes(b)
}

func skipTimestamp(dec *bin.Decoder) error {
	some, err := dec.ReadBool()
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if some {
		if _, err := dec.ReadInt64(binary.LittleEndian); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
	}
	return nil
}
