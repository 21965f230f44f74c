package coinstore

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/utxo"
	"github.com/kaspanet/chainstated/infrastructure/db/database"
	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"
)

var (
	// ErrCoinNotFound is returned when spending a coin that isn't in the store.
	ErrCoinNotFound = errors.New("coin not found")

	// ErrCoinExists is returned when inserting a coin that's already in the
	// store.
	ErrCoinExists = errors.New("coin already exists")
)

// CoinStore is a persistent set of unspent transaction outputs.
//
// Changes are staged in memory and written atomically by Flush together
// with the store's tip, coin count and MuHash commitment, so the on-disk
// state always corresponds to exactly one flushed tip.
//
// Any number of goroutines may read while a single owner writes.
type CoinStore struct {
	name  string
	db    database.Database
	cache *lruCache

	mtx      sync.RWMutex
	toAdd    map[wire.OutPoint]*utxo.Entry
	toRemove map[wire.OutPoint]struct{}

	multiset          *muhash.MuHash
	committedMultiset *muhash.MuHash
	count             uint64
	committedCount    uint64
	tip               *Tip
}

// Open loads a coin store from db. A store that was never flushed is empty
// and has no tip.
func Open(name string, db database.Database, cacheSize int) (*CoinStore, error) {
	tip, err := readTip(db)
	if err != nil {
		return nil, err
	}
	count, err := readCount(db)
	if err != nil {
		return nil, err
	}
	multiset, err := readMultiset(db)
	if err != nil {
		return nil, err
	}

	cs := &CoinStore{
		name:              name,
		db:                db,
		cache:             newLRUCache(cacheSize),
		toAdd:             make(map[wire.OutPoint]*utxo.Entry),
		toRemove:          make(map[wire.OutPoint]struct{}),
		multiset:          multiset,
		committedMultiset: multiset.Clone(),
		count:             count,
		committedCount:    count,
		tip:               tip,
	}
	if tip != nil {
		log.Debugf("Opened coin store %s at tip %s with %d coins", name, tip, count)
	} else {
		log.Debugf("Opened empty coin store %s", name)
	}
	return cs, nil
}

func readMultiset(accessor database.DataAccessor) (*muhash.MuHash, error) {
	serialized, err := accessor.Get(multisetKey)
	if database.IsNotFoundError(err) {
		return muhash.NewMuHash(), nil
	}
	if err != nil {
		return nil, err
	}
	if len(serialized) != muhash.SerializedMuHashSize {
		return nil, errors.Errorf("multiset has length %d, expected %d",
			len(serialized), muhash.SerializedMuHashSize)
	}
	var serializedMuHash muhash.SerializedMuHash
	copy(serializedMuHash[:], serialized)
	multiset, err := muhash.DeserializeMuHash(&serializedMuHash)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return multiset, nil
}

// Name returns the name the store was opened with.
func (cs *CoinStore) Name() string {
	return cs.name
}

// Get returns the coin at outpoint, taking staged changes into account.
func (cs *CoinStore) Get(outpoint *wire.OutPoint) (*utxo.Entry, bool, error) {
	cs.mtx.RLock()
	defer cs.mtx.RUnlock()
	return cs.get(outpoint)
}

func (cs *CoinStore) get(outpoint *wire.OutPoint) (*utxo.Entry, bool, error) {
	if entry, ok := cs.toAdd[*outpoint]; ok {
		return entry, true, nil
	}
	if _, ok := cs.toRemove[*outpoint]; ok {
		return nil, false, nil
	}
	return cs.getCommitted(outpoint)
}

func (cs *CoinStore) getCommitted(outpoint *wire.OutPoint) (*utxo.Entry, bool, error) {
	if entry, ok := cs.cache.get(outpoint); ok {
		return entry, true, nil
	}
	serialized, err := cs.db.Get(coinKey(outpoint))
	if database.IsNotFoundError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	entry, err := utxo.DeserializeEntryFromBytes(serialized)
	if err != nil {
		return nil, false, errors.Wrapf(err, "coin %s is corrupted in store %s", outpoint, cs.name)
	}
	cs.cache.add(outpoint, entry)
	return entry, true, nil
}

// Has returns whether the store contains a coin at outpoint.
func (cs *CoinStore) Has(outpoint *wire.OutPoint) (bool, error) {
	_, found, err := cs.Get(outpoint)
	return found, err
}

// Insert stages a new coin. It fails with ErrCoinExists if a coin is already
// at outpoint.
func (cs *CoinStore) Insert(outpoint *wire.OutPoint, entry *utxo.Entry) error {
	cs.mtx.Lock()
	defer cs.mtx.Unlock()

	_, found, err := cs.get(outpoint)
	if err != nil {
		return err
	}
	if found {
		return errors.Wrapf(ErrCoinExists, "coin %s already exists in store %s", outpoint, cs.name)
	}

	serialized, err := utxo.SerializeCoinToBytes(outpoint, entry)
	if err != nil {
		return err
	}
	cs.toAdd[*outpoint] = entry
	cs.multiset.Add(serialized)
	cs.count++
	return nil
}

// Spend stages the removal of the coin at outpoint and returns it. It fails
// with ErrCoinNotFound if there's no such coin.
func (cs *CoinStore) Spend(outpoint *wire.OutPoint) (*utxo.Entry, error) {
	cs.mtx.Lock()
	defer cs.mtx.Unlock()

	entry, found, err := cs.get(outpoint)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(ErrCoinNotFound, "coin %s not found in store %s", outpoint, cs.name)
	}

	serialized, err := utxo.SerializeCoinToBytes(outpoint, entry)
	if err != nil {
		return nil, err
	}
	if _, staged := cs.toAdd[*outpoint]; staged {
		delete(cs.toAdd, *outpoint)
	} else {
		cs.toRemove[*outpoint] = struct{}{}
	}
	cs.multiset.Remove(serialized)
	cs.count--
	return entry, nil
}

// Count returns the number of coins, including staged changes.
func (cs *CoinStore) Count() uint64 {
	cs.mtx.RLock()
	defer cs.mtx.RUnlock()
	return cs.count
}

// Commitment returns the MuHash of every coin record, including staged
// changes.
func (cs *CoinStore) Commitment() *chainhash.Hash {
	cs.mtx.RLock()
	defer cs.mtx.RUnlock()
	return finalizeMultiset(cs.multiset)
}

func finalizeMultiset(multiset *muhash.MuHash) *chainhash.Hash {
	finalized := multiset.Finalize()
	hash := chainhash.Hash(*finalized.AsArray())
	return &hash
}

// Tip returns the tip of the last flush, or nil if the store was never
// flushed with a tip.
func (cs *CoinStore) Tip() *Tip {
	cs.mtx.RLock()
	defer cs.mtx.RUnlock()
	if cs.tip == nil {
		return nil
	}
	tip := *cs.tip
	return &tip
}

// HasStagedChanges returns whether there are changes that were not flushed.
func (cs *CoinStore) HasStagedChanges() bool {
	cs.mtx.RLock()
	defer cs.mtx.RUnlock()
	return cs.hasStagedChanges()
}

func (cs *CoinStore) hasStagedChanges() bool {
	return len(cs.toAdd) > 0 || len(cs.toRemove) > 0
}

// Discard drops every staged change.
func (cs *CoinStore) Discard() {
	cs.mtx.Lock()
	defer cs.mtx.Unlock()
	cs.resetStaging()
	cs.multiset = cs.committedMultiset.Clone()
	cs.count = cs.committedCount
}

func (cs *CoinStore) resetStaging() {
	cs.toAdd = make(map[wire.OutPoint]*utxo.Entry)
	cs.toRemove = make(map[wire.OutPoint]struct{})
}

// Flush atomically writes the staged changes, the coin count, the
// commitment and, if it's not nil, the new tip.
func (cs *CoinStore) Flush(tip *Tip) error {
	cs.mtx.Lock()
	defer cs.mtx.Unlock()
	return cs.flush(tip, false)
}

func (cs *CoinStore) flush(tip *Tip, finishImport bool) error {
	dbTx, err := cs.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	for outpoint := range cs.toRemove {
		err := dbTx.Delete(coinKey(&outpoint))
		if err != nil {
			return err
		}
	}
	for outpoint, entry := range cs.toAdd {
		serialized, err := utxo.SerializeEntryToBytes(entry)
		if err != nil {
			return err
		}
		err = dbTx.Put(coinKey(&outpoint), serialized)
		if err != nil {
			return err
		}
	}
	err = dbTx.Put(countKey, serializeCount(cs.count))
	if err != nil {
		return err
	}
	err = dbTx.Put(multisetKey, cs.multiset.Serialize()[:])
	if err != nil {
		return err
	}
	if tip != nil {
		err = dbTx.Put(tipKey, serializeTip(tip))
		if err != nil {
			return err
		}
	}
	if finishImport {
		err = dbTx.Delete(importingKey)
		if err != nil {
			return err
		}
	}
	err = dbTx.Commit()
	if err != nil {
		return err
	}

	for outpoint := range cs.toRemove {
		cs.cache.remove(&outpoint)
	}
	for outpoint, entry := range cs.toAdd {
		outpoint := outpoint
		cs.cache.add(&outpoint, entry)
	}
	if tip != nil {
		tipCopy := *tip
		cs.tip = &tipCopy
		log.Tracef("Flushed coin store %s at tip %s with %d coins", cs.name, tip, cs.count)
	}
	cs.resetStaging()
	cs.committedMultiset = cs.multiset.Clone()
	cs.committedCount = cs.count
	return nil
}
