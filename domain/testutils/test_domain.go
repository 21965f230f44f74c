package testutils

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain"
	"github.com/kaspanet/chainstated/domain/chainparams"
	"github.com/kaspanet/chainstated/domain/mining"
)

// OpenTestDomain opens a domain in dataDir with small caches. The caller
// is responsible for closing it.
func OpenTestDomain(t *testing.T, params *chainparams.Params, dataDir string) domain.Domain {
	domainInstance, err := domain.New(&domain.Config{
		DataDir:        dataDir,
		Params:         params,
		CoinCacheSize:  100,
		DBCacheSizeMiB: 8,
		OnFatalError: func(err error) {
			t.Logf("Fatal error reported: %s", err)
		},
	})
	if err != nil {
		t.Fatalf("domain.New unexpectedly failed: %+v", err)
	}
	err = domainInstance.Start()
	if err != nil {
		t.Fatalf("Start unexpectedly failed: %+v", err)
	}
	return domainInstance
}

// NewTestDomain creates a domain in a temporary directory, which is closed
// when the test ends.
func NewTestDomain(t *testing.T, params *chainparams.Params) domain.Domain {
	domainInstance := OpenTestDomain(t, params, t.TempDir())
	t.Cleanup(func() {
		err := domainInstance.Close()
		if err != nil {
			t.Errorf("Close unexpectedly failed: %+v", err)
		}
	})
	return domainInstance
}

// SpendTx returns a transaction spending outpoint to an anyone-can-spend
// output of the given value.
func SpendTx(outpoint *wire.OutPoint, value int64) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(outpoint, nil, nil))
	tx.AddTxOut(wire.NewTxOut(value, mining.OpTrueScript))
	return tx
}

// CoinbaseOutpoint returns the outpoint of the first output of block's
// coinbase.
func CoinbaseOutpoint(block *wire.MsgBlock) *wire.OutPoint {
	txID := block.Transactions[0].TxHash()
	return wire.NewOutPoint(&txID, 0)
}

// SyncHeaders copies the headers at heights [fromHeight, toHeight] of
// source's header chain to target.
func SyncHeaders(t *testing.T, source, target domain.Domain, fromHeight, toHeight int32) {
	for height := fromHeight; height <= toHeight; height++ {
		node, ok := source.BlockIndex().NodeByHeight(height)
		if !ok {
			t.Fatalf("SyncHeaders: source has no header at height %d", height)
		}
		_, err := target.ChainstateManager().ProcessHeader(&node.Header)
		if err != nil {
			t.Fatalf("SyncHeaders: ProcessHeader at height %d unexpectedly failed: %+v", height, err)
		}
	}
}

// SyncBlocks copies the blocks at heights [fromHeight, toHeight] of source
// to target.
func SyncBlocks(t *testing.T, source, target domain.Domain, fromHeight, toHeight int32) {
	for height := fromHeight; height <= toHeight; height++ {
		block := BlockAtHeight(t, source, height)
		err := target.ChainstateManager().ProcessBlock(block)
		if err != nil {
			t.Fatalf("SyncBlocks: ProcessBlock at height %d unexpectedly failed: %+v", height, err)
		}
	}
}

// BlockAtHeight returns the body of the block at height in the domain's
// header chain.
func BlockAtHeight(t *testing.T, d domain.Domain, height int32) *wire.MsgBlock {
	block, found, err := d.BlockIndex().BlockAtHeight(height)
	if err != nil {
		t.Fatalf("BlockAtHeight(%d) unexpectedly failed: %+v", height, err)
	}
	if !found {
		t.Fatalf("BlockAtHeight: no block at height %d", height)
	}
	return block
}
