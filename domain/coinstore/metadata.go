package coinstore

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/utxo"
	"github.com/kaspanet/chainstated/infrastructure/db/database"
	"github.com/pkg/errors"
)

var (
	coinsBucket    = database.MakeBucket([]byte("coins"))
	metadataBucket = database.MakeBucket([]byte("coins-metadata"))

	tipKey       = metadataBucket.Key([]byte("tip"))
	countKey     = metadataBucket.Key([]byte("count"))
	multisetKey  = metadataBucket.Key([]byte("multiset"))
	importingKey = metadataBucket.Key([]byte("importing"))
)

func coinKey(outpoint *wire.OutPoint) *database.Key {
	return coinsBucket.Key(utxo.SerializeOutpointKey(outpoint))
}

// Tip is the block a coin store's contents correspond to.
type Tip struct {
	Hash   chainhash.Hash
	Height int32
}

func (t *Tip) String() string {
	return fmt.Sprintf("%s (height %d)", t.Hash, t.Height)
}

const tipSize = chainhash.HashSize + 4

func serializeTip(tip *Tip) []byte {
	serialized := make([]byte, tipSize)
	copy(serialized, tip.Hash[:])
	binary.LittleEndian.PutUint32(serialized[chainhash.HashSize:], uint32(tip.Height))
	return serialized
}

func deserializeTip(serialized []byte) (*Tip, error) {
	if len(serialized) != tipSize {
		return nil, errors.Errorf("tip has length %d, expected %d", len(serialized), tipSize)
	}
	tip := &Tip{}
	copy(tip.Hash[:], serialized[:chainhash.HashSize])
	tip.Height = int32(binary.LittleEndian.Uint32(serialized[chainhash.HashSize:]))
	return tip, nil
}

func serializeCount(count uint64) []byte {
	serialized := make([]byte, 8)
	binary.LittleEndian.PutUint64(serialized, count)
	return serialized
}

func deserializeCount(serialized []byte) (uint64, error) {
	if len(serialized) != 8 {
		return 0, errors.Errorf("coin count has length %d, expected 8", len(serialized))
	}
	return binary.LittleEndian.Uint64(serialized), nil
}

func readTip(accessor database.DataAccessor) (*Tip, error) {
	serialized, err := accessor.Get(tipKey)
	if database.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return deserializeTip(serialized)
}

func readCount(accessor database.DataAccessor) (uint64, error) {
	serialized, err := accessor.Get(countKey)
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return deserializeCount(serialized)
}
