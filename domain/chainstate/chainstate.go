package chainstate

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/blockvalidation"
	"github.com/kaspanet/chainstated/domain/coinstore"
	"github.com/kaspanet/chainstated/infrastructure/db/database"
	"github.com/kaspanet/chainstated/infrastructure/db/database/ldb"
	"github.com/pkg/errors"
)

// Role tells which part a chainstate plays.
type Role string

const (
	// RoleNormal is the chainstate validated from genesis.
	RoleNormal Role = "normal"

	// RoleSnapshot is the chainstate seeded from a snapshot.
	RoleSnapshot Role = "snapshot"
)

var (
	snapshotMetadataBucket = database.MakeBucket([]byte("snapshot-metadata"))
	baseCommitmentKey      = snapshotMetadataBucket.Key([]byte("base-commitment"))
)

// Chainstate is a UTXO set in its own directory together with the tip it
// corresponds to.
type Chainstate struct {
	role   Role
	dir    string
	db     *ldb.LevelDB
	coins  *coinstore.CoinStore
	engine *blockvalidation.Engine

	// fromSnapshotBlockHash is the base block of the snapshot this
	// chainstate was seeded from, or nil.
	fromSnapshotBlockHash *chainhash.Hash

	connectMtx sync.Mutex
	validated  bool
}

func openChainstate(role Role, dir string, cfg *Config, engine *blockvalidation.Engine) (*Chainstate, error) {
	db, err := ldb.NewLevelDB(dir, cfg.DBCacheSizeMiB)
	if err != nil {
		return nil, err
	}
	coins, err := coinstore.Open(string(role), db, cfg.CoinCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	fromSnapshotBlockHash, err := readBaseBlockHash(dir)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Chainstate{
		role:                  role,
		dir:                   dir,
		db:                    db,
		coins:                 coins,
		engine:                engine,
		fromSnapshotBlockHash: fromSnapshotBlockHash,
		validated:             role == RoleNormal,
	}, nil
}

func (cs *Chainstate) String() string {
	return fmt.Sprintf("%s chainstate at %s", cs.role, cs.coins.Tip())
}

// Role returns the part the chainstate plays.
func (cs *Chainstate) Role() Role {
	return cs.role
}

// Coins returns the chainstate's coin store.
func (cs *Chainstate) Coins() *coinstore.CoinStore {
	return cs.coins
}

// Tip returns the last block connected to the chainstate.
func (cs *Chainstate) Tip() *coinstore.Tip {
	return cs.coins.Tip()
}

// FromSnapshotBlockHash returns the base block of the snapshot the
// chainstate was seeded from, or nil if it was built from genesis.
func (cs *Chainstate) FromSnapshotBlockHash() *chainhash.Hash {
	return cs.fromSnapshotBlockHash
}

// IsValidated returns whether every block of the chainstate was validated.
func (cs *Chainstate) IsValidated() bool {
	return cs.validated
}

// ConnectBlock connects block, which must be at height and extend the
// chainstate's tip, and flushes the result. On failure the chainstate is
// left at its previous tip.
func (cs *Chainstate) ConnectBlock(block *wire.MsgBlock, height int32) error {
	cs.connectMtx.Lock()
	defer cs.connectMtx.Unlock()

	tip := cs.coins.Tip()
	if tip.Height+1 != height || block.Header.PrevBlock != tip.Hash {
		return errors.Wrapf(blockvalidation.ErrUnexpectedHeight, "block %s at height %d doesn't "+
			"extend the %s", block.BlockHash(), height, cs)
	}
	err := cs.engine.ConnectBlock(cs.coins, block, height)
	if err != nil {
		cs.coins.Discard()
		return err
	}
	err = cs.coins.Flush(&coinstore.Tip{Hash: block.BlockHash(), Height: height})
	if err != nil {
		cs.coins.Discard()
		return err
	}
	return nil
}

func (cs *Chainstate) writeBaseCommitment(commitment *chainhash.Hash) error {
	return cs.db.Put(baseCommitmentKey, commitment[:])
}

func (cs *Chainstate) baseCommitment() (*chainhash.Hash, error) {
	serialized, err := cs.db.Get(baseCommitmentKey)
	if err != nil {
		return nil, err
	}
	return chainhash.NewHash(serialized)
}

func (cs *Chainstate) close() error {
	return cs.db.Close()
}
