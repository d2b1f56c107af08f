package db

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	"github.com/lightvote/lightvote/light/store"
	"github.com/lightvote/lightvote/types"
)

const (
	prefixHeader = int64(1)
	prefixSize   = int64(2)
)

type dbs struct {
	db dbm.DB

	mtx  sync.RWMutex
	size uint16
}

var _ store.Store = (*dbs)(nil)

// New returns a Store that wraps any DB.
// If you want to share one DB across many light clients consider using PrefixDB.
func New(db dbm.DB) store.Store {
	lightStore := &dbs{db: db}

	// retrieve the size of the db
	size := uint16(0)
	bz, err := lightStore.db.Get(sizeKey)
	if err == nil && len(bz) == 2 {
		size = unmarshalSize(bz)
	}
	lightStore.size = size

	return lightStore
}

// SaveHeader persists h keyed by its slot.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) SaveHeader(h *types.BlockHeader) error {
	if h == nil {
		return fmt.Errorf("nil header")
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	key := headerKey(h.Slot)
	existing, err := s.db.Get(key)
	if err != nil {
		return err
	}
	if existing != nil {
		var stored types.BlockHeader
		if err := json.Unmarshal(existing, &stored); err != nil {
			return fmt.Errorf("unmarshalling stored header: %w", err)
		}
		if stored.BankHash != h.BankHash {
			return store.ErrConflictingBankHash{Slot: h.Slot, Stored: stored.BankHash, Received: h.BankHash}
		}
		return nil
	}

	if s.size == math.MaxUint16 {
		return store.ErrStoreFull
	}

	bz, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshaling header: %w", err)
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err = b.Set(key, bz); err != nil {
		return err
	}
	if err = b.Set(sizeKey, marshalSize(s.size+1)); err != nil {
		return err
	}
	if err = b.WriteSync(); err != nil {
		return err
	}
	s.size++

	return nil
}

// BlockHeader retrieves the header recorded for slot.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) BlockHeader(slot types.Slot) (*types.BlockHeader, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	bz, err := s.db.Get(headerKey(slot))
	if err != nil {
		return nil, err
	}
	if len(bz) == 0 {
		return nil, store.ErrHeaderNotFound
	}

	var h types.BlockHeader
	if err := json.Unmarshal(bz, &h); err != nil {
		return nil, fmt.Errorf("unmarshalling header: %w", err)
	}
	return &h, nil
}

// LastSlot returns the last (newest) recorded slot.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) LastSlot() (types.Slot, bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	itr, err := s.db.ReverseIterator(headerKey(0), headerKeyEnd())
	if err != nil {
		return 0, false, err
	}
	defer itr.Close()

	for itr.Valid() {
		if slot, err := parseHeaderKey(itr.Key()); err == nil {
			return slot, true, nil
		}
		itr.Next()
	}

	return 0, false, itr.Error()
}

// FirstSlot returns the first (oldest) recorded slot.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) FirstSlot() (types.Slot, bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	itr, err := s.db.Iterator(headerKey(0), headerKeyEnd())
	if err != nil {
		return 0, false, err
	}
	defer itr.Close()

	for itr.Valid() {
		if slot, err := parseHeaderKey(itr.Key()); err == nil {
			return slot, true, nil
		}
		itr.Next()
	}

	return 0, false, itr.Error()
}

// Prune prunes headers until there are only size headers left.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Prune(size uint16) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	// 1) Check how many we need to prune.
	sSize := s.size
	if sSize <= size { // nothing to prune
		return nil
	}
	numToPrune := sSize - size

	b := s.db.NewBatch()
	defer b.Close()

	// 2) use an iterator to batch together all the blocks that need to be deleted
	if err := s.batchDelete(b, numToPrune); err != nil {
		return err
	}

	// 3) // update size
	s.size = size
	if err := b.Set(sizeKey, marshalSize(size)); err != nil {
		return fmt.Errorf("failed to persist size: %w", err)
	}

	// 4) write batch deletion to disk
	return b.WriteSync()
}

func (s *dbs) batchDelete(batch dbm.Batch, numToPrune uint16) error {
	itr, err := s.db.Iterator(headerKey(0), headerKeyEnd())
	if err != nil {
		return err
	}
	defer itr.Close()

	for itr.Valid() && numToPrune > 0 {
		if _, err := parseHeaderKey(itr.Key()); err == nil {
			if err = batch.Delete(itr.Key()); err != nil {
				return err
			}
			numToPrune--
		}
		itr.Next()
	}
	return itr.Error()
}

// Size returns the number of header records.
//
// Safe for concurrent use by multiple goroutines.
func (s *dbs) Size() uint16 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.size
}

// Keys are orderedcode encoded so that iteration follows slot order.
var sizeKey = mustEncode(prefixSize)

func headerKey(slot types.Slot) []byte {
	return mustEncode(prefixHeader, slot)
}

// headerKeyEnd is the exclusive upper bound of all header keys.
func headerKeyEnd() []byte {
	return mustEncode(prefixHeader + 1)
}

func parseHeaderKey(key []byte) (types.Slot, error) {
	var (
		prefix int64
		slot   uint64
	)
	remaining, err := orderedcode.Parse(string(key), &prefix, &slot)
	if err != nil {
		return 0, err
	}
	if remaining != "" {
		return 0, fmt.Errorf("expected no remainder when parsing key but got: %s", remaining)
	}
	if prefix != prefixHeader {
		return 0, fmt.Errorf("expected header prefix but got: %d", prefix)
	}
	return slot, nil
}

func mustEncode(items ...interface{}) []byte {
	bz, err := orderedcode.Append(nil, items...)
	if err != nil {
		panic(err)
	}
	return bz
}

func marshalSize(size uint16) []byte {
	bs := make([]byte, 2)
	binary.LittleEndian.PutUint16(bs, size)
	return bs
}

func unmarshalSize(bz []byte) uint16 {
	return binary.LittleEndian.Uint16(bz)
}
