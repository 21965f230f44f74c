package coinstore

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/utxo"
	"github.com/kaspanet/chainstated/infrastructure/db/database"
	"github.com/pkg/errors"
)

// Iterator walks the committed coins of a store in key order: by txid and
// then by output index. It reads from a consistent database snapshot, so
// flushes that happen while iterating are not visible to it.
type Iterator struct {
	dbTx   database.Transaction
	cursor database.Cursor

	tip        *Tip
	count      uint64
	commitment *chainhash.Hash

	isClosed bool
}

// OpenIterator opens an iterator over the committed coins.
func (cs *CoinStore) OpenIterator() (*Iterator, error) {
	dbTx, err := cs.db.Begin()
	if err != nil {
		return nil, err
	}
	iterator, err := newIterator(dbTx)
	if err != nil {
		_ = dbTx.Rollback()
		return nil, err
	}
	return iterator, nil
}

func newIterator(dbTx database.Transaction) (*Iterator, error) {
	tip, err := readTip(dbTx)
	if err != nil {
		return nil, err
	}
	count, err := readCount(dbTx)
	if err != nil {
		return nil, err
	}
	multiset, err := readMultiset(dbTx)
	if err != nil {
		return nil, err
	}
	cursor, err := dbTx.Cursor(coinsBucket)
	if err != nil {
		return nil, err
	}
	return &Iterator{
		dbTx:       dbTx,
		cursor:     cursor,
		tip:        tip,
		count:      count,
		commitment: finalizeMultiset(multiset),
	}, nil
}

// Tip returns the tip the iterated coins correspond to.
func (it *Iterator) Tip() *Tip {
	return it.tip
}

// Count returns the number of coins the iterator yields.
func (it *Iterator) Count() uint64 {
	return it.count
}

// Commitment returns the MuHash of the iterated coins.
func (it *Iterator) Commitment() *chainhash.Hash {
	return it.commitment
}

// Next moves the iterator to the next coin. It returns false once exhausted.
func (it *Iterator) Next() bool {
	if it.isClosed {
		panic("cannot call next on a closed iterator")
	}
	return it.cursor.Next()
}

// Get returns the current coin.
func (it *Iterator) Get() (*wire.OutPoint, *utxo.Entry, error) {
	if it.isClosed {
		return nil, nil, errors.New("cannot get the coin of a closed iterator")
	}
	key, err := it.cursor.Key()
	if err != nil {
		return nil, nil, err
	}
	outpoint, err := utxo.DeserializeOutpointKey(key.Suffix())
	if err != nil {
		return nil, nil, err
	}
	serialized, err := it.cursor.Value()
	if err != nil {
		return nil, nil, err
	}
	entry, err := utxo.DeserializeEntryFromBytes(serialized)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "coin %s is corrupted", outpoint)
	}
	return outpoint, entry, nil
}

// Close releases the iterator's database snapshot.
func (it *Iterator) Close() error {
	if it.isClosed {
		return errors.New("cannot close an already closed iterator")
	}
	it.isClosed = true
	err := it.cursor.Close()
	if err != nil {
		return err
	}
	return it.dbTx.Rollback()
}
