package vote

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightvote/lightvote/types"
)

var allVoteTags = []uint32{
	InstructionVote,
	InstructionVoteSwitch,
	InstructionUpdateVoteState,
	InstructionUpdateVoteStateSwitch,
	InstructionCompactUpdateVoteState,
	InstructionCompactUpdateVoteStateSwitch,
	InstructionTowerSync,
	InstructionTowerSyncSwitch,
}

func testHash(b byte) types.BankHash {
	var h types.BankHash
	for i := range h {
		h[i] = b
	}
	return h
}

func TestDecodeInstructionLayouts(t *testing.T) {
	hash := testHash(7)
	for _, tag := range allVoteTags {
		tag := tag
		t.Run(InstructionName(tag), func(t *testing.T) {
			data, err := EncodeInstruction(tag, 123456, hash)
			require.NoError(t, err)

			p, err := DecodeInstruction(data)
			require.NoError(t, err)
			assert.Equal(t, tag, p.Tag)
			assert.EqualValues(t, 123456, p.Slot)
			assert.Equal(t, hash, p.BankHash)

			// every strict prefix must fail to decode
			for n := 0; n < len(data); n++ {
				_, err := DecodeInstruction(data[:n])
				assert.Error(t, err, "prefix of %d bytes", n)
			}

			_, err = DecodeInstruction(append(data, 0))
			assert.Error(t, err, "trailing byte")
		})
	}
}

func TestDecodeVoteUsesLastSlot(t *testing.T) {
	hash := testHash(3)
	data := make([]byte, 0, 64)
	data = binary.LittleEndian.AppendUint32(data, InstructionVote)
	data = binary.LittleEndian.AppendUint64(data, 3)
	data = binary.LittleEndian.AppendUint64(data, 10)
	data = binary.LittleEndian.AppendUint64(data, 11)
	data = binary.LittleEndian.AppendUint64(data, 12)
	data = append(data, hash[:]...)
	data = append(data, 1) // Some(timestamp)
	data = binary.LittleEndian.AppendUint64(data, 1700000000)

	p, err := DecodeInstruction(data)
	require.NoError(t, err)
	assert.EqualValues(t, 12, p.Slot)
	assert.Equal(t, hash, p.BankHash)
}

func TestDecodeCompactOffsets(t *testing.T) {
	hash := testHash(9)
	data := make([]byte, 0, 64)
	data = binary.LittleEndian.AppendUint32(data, InstructionCompactUpdateVoteState)
	data = binary.LittleEndian.AppendUint64(data, 100) // root
	data = append(data, 2)                              // two lockouts
	data = append(data, 1, 31)                          // offset 1
	data = append(data, 0x82, 0x01, 30)                 // offset 130 (varint)
	data = append(data, hash[:]...)
	data = append(data, 0) // no timestamp

	p, err := DecodeInstruction(data)
	require.NoError(t, err)
	assert.EqualValues(t, 231, p.Slot)
}

func TestDecodeCompactOverflow(t *testing.T) {
	data := make([]byte, 0, 64)
	data = binary.LittleEndian.AppendUint32(data, InstructionTowerSync)
	data = binary.LittleEndian.AppendUint64(data, math.MaxUint64-1)
	data = append(data, 1)
	data = binary.AppendUvarint(data, 5)
	data = append(data, 1)

	_, err := DecodeInstruction(data)
	assert.Error(t, err)
}

func TestDecodeInstructionRejects(t *testing.T) {
	testCases := map[string][]byte{
		"empty":         nil,
		"short tag":     {2, 0},
		"authorize":     {1, 0, 0, 0, 0},
		"no slots":      append(binary.LittleEndian.AppendUint32(nil, InstructionVote), make([]byte, 8)...),
		"huge slot vec": binary.LittleEndian.AppendUint64(binary.LittleEndian.AppendUint32(nil, InstructionVote), 1<<40),
	}
	for name, data := range testCases {
		data := data
		t.Run(name, func(t *testing.T) {
			_, err := DecodeInstruction(data)
			assert.Error(t, err)
		})
	}
}

func TestIsVoteInstruction(t *testing.T) {
	for _, tag := range allVoteTags {
		assert.True(t, IsVoteInstruction(tag), InstructionName(tag))
	}
	for _, tag := range []uint32{0, 1, 3, 4, 5, 7, 10, 11, 16} {
		assert.False(t, IsVoteInstruction(tag), tag)
	}
	assert.Equal(t, "Unknown(42)", InstructionName(42))
}
