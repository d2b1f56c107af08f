package db

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/lightvote/lightvote/light/store"
	"github.com/lightvote/lightvote/types"
)

func header(slot types.Slot, b byte) *types.BlockHeader {
	h := &types.BlockHeader{Slot: slot}
	if slot > 0 {
		h.ParentSlot = slot - 1
	}
	h.BankHash[0] = b
	h.BankHash[1] = byte(slot)
	return h
}

func TestLast_FirstSlot(t *testing.T) {
	dbStore := New(dbm.NewMemDB())

	// Empty store
	_, ok, err := dbStore.LastSlot()
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = dbStore.FirstSlot()
	require.NoError(t, err)
	assert.False(t, ok)

	// 1 key
	require.NoError(t, dbStore.SaveHeader(header(7, 1)))

	slot, ok, err := dbStore.LastSlot()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 7, slot)

	slot, ok, err = dbStore.FirstSlot()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 7, slot)

	// slots far apart still sort numerically
	require.NoError(t, dbStore.SaveHeader(header(1000, 1)))
	require.NoError(t, dbStore.SaveHeader(header(3, 1)))

	slot, _, err = dbStore.LastSlot()
	require.NoError(t, err)
	assert.EqualValues(t, 1000, slot)

	slot, _, err = dbStore.FirstSlot()
	require.NoError(t, err)
	assert.EqualValues(t, 3, slot)
}

func Test_SaveHeader(t *testing.T) {
	dbStore := New(dbm.NewMemDB())

	// Empty store
	h, err := dbStore.BlockHeader(1)
	require.ErrorIs(t, err, store.ErrHeaderNotFound)
	assert.Nil(t, h)

	// 1 key
	require.NoError(t, dbStore.SaveHeader(header(1, 1)))
	h, err = dbStore.BlockHeader(1)
	require.NoError(t, err)
	assert.Equal(t, header(1, 1), h)
	assert.EqualValues(t, 1, dbStore.Size())

	// same bank hash again is a no-op
	require.NoError(t, dbStore.SaveHeader(header(1, 1)))
	assert.EqualValues(t, 1, dbStore.Size())

	// conflicting bank hash
	err = dbStore.SaveHeader(header(1, 2))
	var conflict store.ErrConflictingBankHash
	require.ErrorAs(t, err, &conflict)
	assert.EqualValues(t, 1, conflict.Slot)
	assert.Equal(t, header(1, 1).BankHash, conflict.Stored)
	assert.Equal(t, header(1, 2).BankHash, conflict.Received)

	// the stored header is untouched
	h, err = dbStore.BlockHeader(1)
	require.NoError(t, err)
	assert.Equal(t, header(1, 1).BankHash, h.BankHash)

	assert.Error(t, dbStore.SaveHeader(nil))
}

func Test_Prune(t *testing.T) {
	dbStore := New(dbm.NewMemDB())

	// Empty store
	assert.EqualValues(t, 0, dbStore.Size())
	require.NoError(t, dbStore.Prune(0))

	// One header
	require.NoError(t, dbStore.SaveHeader(header(2, 1)))
	assert.EqualValues(t, 1, dbStore.Size())

	require.NoError(t, dbStore.Prune(1))
	assert.EqualValues(t, 1, dbStore.Size())

	require.NoError(t, dbStore.Prune(0))
	assert.EqualValues(t, 0, dbStore.Size())

	// Multiple headers
	for i := 1; i <= 10; i++ {
		require.NoError(t, dbStore.SaveHeader(header(types.Slot(i), 1)))
	}

	require.NoError(t, dbStore.Prune(11))
	assert.EqualValues(t, 10, dbStore.Size())

	require.NoError(t, dbStore.Prune(7))
	assert.EqualValues(t, 7, dbStore.Size())
	slot, _, err := dbStore.FirstSlot()
	require.NoError(t, err)
	assert.EqualValues(t, 4, slot)
}

func Test_SizePersisted(t *testing.T) {
	db := dbm.NewMemDB()
	dbStore := New(db)
	for i := 1; i <= 3; i++ {
		require.NoError(t, dbStore.SaveHeader(header(types.Slot(i), 1)))
	}

	reopened := New(db)
	assert.EqualValues(t, 3, reopened.Size())
}

func Test_Concurrency(t *testing.T) {
	dbStore := New(dbm.NewMemDB())

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i types.Slot) {
			defer wg.Done()

			// only one of the two conflicting headers can win
			_ = dbStore.SaveHeader(header(i, 1))
			_ = dbStore.SaveHeader(header(i, 2))

			_, _ = dbStore.BlockHeader(i)
			_, _, _ = dbStore.LastSlot()
			_, _, _ = dbStore.FirstSlot()
			_ = dbStore.Prune(2)
			_ = dbStore.Size()
		}(types.Slot(i))
	}
	wg.Wait()
}

func TestSaveHeaderFullStore(t *testing.T) {
	db := dbm.NewMemDB()
	require.NoError(t, db.Set(sizeKey, marshalSize(math.MaxUint16)))
	dbStore := New(db)
	require.EqualValues(t, math.MaxUint16, dbStore.Size())

	err := dbStore.SaveHeader(header(1, 1))
	assert.ErrorIs(t, err, store.ErrStoreFull)
	assert.EqualValues(t, math.MaxUint16, dbStore.Size())
	_, err = dbStore.BlockHeader(1)
	assert.ErrorIs(t, err, store.ErrHeaderNotFound)

	require.NoError(t, dbStore.Prune(10))
	require.NoError(t, dbStore.SaveHeader(header(1, 1)))
	assert.EqualValues(t, 11, dbStore.Size())
}
