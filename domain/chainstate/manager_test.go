package chainstate

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/blockindex"
	"github.com/kaspanet/chainstated/domain/blockvalidation"
	"github.com/kaspanet/chainstated/domain/chainparams"
	"github.com/kaspanet/chainstated/domain/coinstore"
	"github.com/kaspanet/chainstated/domain/utxo"
	"github.com/kaspanet/chainstated/infrastructure/db/database/ldb"
	"github.com/pkg/errors"
)

const testBaseHeight = 5

var testBaseHash = chainhash.Hash{0x01, 0x02, 0x03}

type testContext struct {
	t       *testing.T
	dataDir string
	params  *chainparams.Params
	cfg     *Config
	engine  *blockvalidation.Engine
}

func newTestContext(t *testing.T) *testContext {
	params := chainparams.RegressionNetParams.Clone()
	err := params.AddAssumeUTXO(chainparams.AssumeUTXOData{
		Height:       testBaseHeight,
		BlockHash:    testBaseHash,
		CoinsCount:   1,
		ChainTxCount: testBaseHeight + 1,
	})
	if err != nil {
		t.Fatalf("AddAssumeUTXO unexpectedly failed: %+v", err)
	}
	dataDir := t.TempDir()
	return &testContext{
		t:       t,
		dataDir: dataDir,
		params:  params,
		cfg: &Config{
			DataDir:        dataDir,
			Params:         params,
			CoinCacheSize:  10,
			DBCacheSizeMiB: 8,
		},
		engine: blockvalidation.New(params),
	}
}

// openManager opens a manager over tc's data directory. The returned
// function stops the manager and closes its block index. It's also called
// when the test ends.
func (tc *testContext) openManager() (*Manager, func(), error) {
	blocksDB, err := ldb.NewLevelDB(filepath.Join(tc.dataDir, "blocks"), 8)
	if err != nil {
		tc.t.Fatalf("NewLevelDB unexpectedly failed: %+v", err)
	}
	blockIndex, err := blockindex.New(blocksDB, tc.params)
	if err != nil {
		blocksDB.Close()
		tc.t.Fatalf("blockindex.New unexpectedly failed: %+v", err)
	}
	manager, err := New(tc.cfg, blockIndex, tc.engine)
	if err != nil {
		blocksDB.Close()
		return nil, nil, err
	}
	var once sync.Once
	closeManager := func() {
		once.Do(func() {
			err := manager.Stop()
			if err != nil {
				tc.t.Errorf("Stop unexpectedly failed: %+v", err)
			}
			blocksDB.Close()
		})
	}
	tc.t.Cleanup(closeManager)
	return manager, closeManager, nil
}

func (tc *testContext) mustOpenManager() (*Manager, func()) {
	manager, closeManager, err := tc.openManager()
	if err != nil {
		tc.t.Fatalf("New unexpectedly failed: %+v", err)
	}
	return manager, closeManager
}

func (tc *testContext) path(name string) string {
	return filepath.Join(tc.dataDir, name)
}

func (tc *testContext) exists(name string) bool {
	exists, err := pathExists(tc.path(name))
	if err != nil {
		tc.t.Fatalf("pathExists unexpectedly failed: %s", err)
	}
	return exists
}

type snapshotDirOptions struct {
	baseHash      *chainhash.Hash
	skipBaseHash  bool
	leaveImport   bool
	markValidated bool
}

var testCoinOutpoint = wire.OutPoint{Hash: chainhash.Hash{0xaa}, Index: 0}

// writeSnapshotDir creates a snapshot chainstate directory holding a single
// coin at testBaseHeight, the way a load leaves it.
func (tc *testContext) writeSnapshotDir(options snapshotDirOptions) {
	dir := tc.path(snapshotDirName)
	snapshot, err := openChainstate(RoleSnapshot, dir, tc.cfg, tc.engine)
	if err != nil {
		tc.t.Fatalf("openChainstate unexpectedly failed: %+v", err)
	}
	defer snapshot.close()

	err = snapshot.coins.BeginImport()
	if err != nil {
		tc.t.Fatalf("BeginImport unexpectedly failed: %+v", err)
	}
	err = snapshot.coins.Insert(&testCoinOutpoint, utxo.NewEntry(5000, []byte{0x51}, true, 1))
	if err != nil {
		tc.t.Fatalf("Insert unexpectedly failed: %+v", err)
	}
	if options.leaveImport {
		err := snapshot.coins.FlushImportBatch()
		if err != nil {
			tc.t.Fatalf("FlushImportBatch unexpectedly failed: %+v", err)
		}
	} else {
		err := snapshot.coins.FinishImport(&coinstore.Tip{Hash: testBaseHash, Height: testBaseHeight})
		if err != nil {
			tc.t.Fatalf("FinishImport unexpectedly failed: %+v", err)
		}
		err = snapshot.writeBaseCommitment(snapshot.coins.Commitment())
		if err != nil {
			tc.t.Fatalf("writeBaseCommitment unexpectedly failed: %+v", err)
		}
	}

	if !options.skipBaseHash {
		baseHash := &testBaseHash
		if options.baseHash != nil {
			baseHash = options.baseHash
		}
		err := writeBaseBlockHash(dir, baseHash)
		if err != nil {
			tc.t.Fatalf("writeBaseBlockHash unexpectedly failed: %+v", err)
		}
	}
	if options.markValidated {
		err := writeValidatedMarker(dir)
		if err != nil {
			tc.t.Fatalf("writeValidatedMarker unexpectedly failed: %+v", err)
		}
	}
}

// initNormalDir creates the normal chainstate at the genesis block.
func (tc *testContext) initNormalDir() {
	_, closeManager := tc.mustOpenManager()
	closeManager()
}

func TestNewManagerAtGenesis(t *testing.T) {
	tc := newTestContext(t)
	manager, _ := tc.mustOpenManager()
	if manager.State() != StateNormal {
		t.Fatalf("expected state %s, got %s", StateNormal, manager.State())
	}
	tip := manager.ActiveTip()
	if tip.Height != 0 || tip.Hash != *tc.params.GenesisHash {
		t.Fatalf("expected the genesis tip, got %+v", tip)
	}
	chainstates := manager.Chainstates()
	if len(chainstates) != 1 || chainstates[0].Role != RoleNormal || chainstates[0].Coins != 0 {
		t.Fatalf("unexpected chainstates %+v", chainstates)
	}
}

func TestOpenUnvalidatedSnapshotChainstate(t *testing.T) {
	tc := newTestContext(t)
	tc.initNormalDir()
	tc.writeSnapshotDir(snapshotDirOptions{})

	manager, _ := tc.mustOpenManager()
	if manager.State() != StateSnapshotUnvalidated {
		t.Fatalf("expected state %s, got %s", StateSnapshotUnvalidated, manager.State())
	}
	if manager.TipHeight() != testBaseHeight {
		t.Fatalf("expected the active tip at %d, got %d", testBaseHeight, manager.TipHeight())
	}
	if manager.ChainstateForHeight(testBaseHeight-1) != RoleNormal ||
		manager.ChainstateForHeight(testBaseHeight) != RoleSnapshot {
		t.Fatalf("heights are routed to the wrong chainstates")
	}
	_, found, err := manager.GetCoin(&testCoinOutpoint)
	if err != nil || !found {
		t.Fatalf("GetCoin of the snapshot coin failed: %v (found: %t)", err, found)
	}

	chainstates := manager.Chainstates()
	if len(chainstates) != 2 {
		t.Fatalf("expected 2 chainstates, got %d", len(chainstates))
	}
	snapshot := chainstates[1]
	if snapshot.Role != RoleSnapshot || snapshot.Validated || *snapshot.SnapshotBlockHash != testBaseHash {
		t.Fatalf("unexpected snapshot chainstate %+v", snapshot)
	}
}

func TestOpenValidatedSnapshotChainstate(t *testing.T) {
	tc := newTestContext(t)
	tc.initNormalDir()
	tc.writeSnapshotDir(snapshotDirOptions{markValidated: true})

	manager, _ := tc.mustOpenManager()
	if manager.State() != StateSnapshotBecameNormal {
		t.Fatalf("expected state %s, got %s", StateSnapshotBecameNormal, manager.State())
	}
	if manager.TipHeight() != testBaseHeight {
		t.Fatalf("expected the merged tip at %d, got %d", testBaseHeight, manager.TipHeight())
	}
	if tc.exists(snapshotDirName) || tc.exists(toDeleteDirName) {
		t.Fatalf("the merge left directories behind")
	}
	validated, err := hasValidatedMarker(tc.path(normalDirName))
	if err != nil {
		t.Fatalf("hasValidatedMarker unexpectedly failed: %s", err)
	}
	if validated {
		t.Fatalf("the validated marker wasn't removed after the merge")
	}
}

func TestRecoverInterruptedMerge(t *testing.T) {
	tests := []struct {
		name string
		// interrupt simulates the steps of a merge done before a crash.
		interrupt func(tc *testContext)
	}{
		{
			name: "after moving the normal chainstate",
			interrupt: func(tc *testContext) {
				err := os.Rename(tc.path(normalDirName), tc.path(toDeleteDirName))
				if err != nil {
					tc.t.Fatalf("Rename unexpectedly failed: %s", err)
				}
			},
		},
		{
			name: "after moving the snapshot chainstate",
			interrupt: func(tc *testContext) {
				err := os.Rename(tc.path(normalDirName), tc.path(toDeleteDirName))
				if err != nil {
					tc.t.Fatalf("Rename unexpectedly failed: %s", err)
				}
				err = os.Rename(tc.path(snapshotDirName), tc.path(normalDirName))
				if err != nil {
					tc.t.Fatalf("Rename unexpectedly failed: %s", err)
				}
			},
		},
		{
			name: "after removing the old chainstate",
			interrupt: func(tc *testContext) {
				err := os.RemoveAll(tc.path(normalDirName))
				if err != nil {
					tc.t.Fatalf("RemoveAll unexpectedly failed: %s", err)
				}
				err = os.Rename(tc.path(snapshotDirName), tc.path(normalDirName))
				if err != nil {
					tc.t.Fatalf("Rename unexpectedly failed: %s", err)
				}
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tc := newTestContext(t)
			tc.initNormalDir()
			tc.writeSnapshotDir(snapshotDirOptions{markValidated: true})
			test.interrupt(tc)

			manager, _ := tc.mustOpenManager()
			if manager.State() != StateSnapshotBecameNormal {
				t.Fatalf("expected state %s, got %s", StateSnapshotBecameNormal, manager.State())
			}
			if manager.TipHeight() != testBaseHeight {
				t.Fatalf("expected the merged tip at %d, got %d", testBaseHeight, manager.TipHeight())
			}
			if tc.exists(toDeleteDirName) || tc.exists(snapshotDirName) {
				t.Fatalf("recovery left directories behind")
			}
			if len(manager.Chainstates()) != 1 {
				t.Fatalf("expected a single chainstate")
			}
		})
	}
}

func TestDiscardPartialSnapshotLoad(t *testing.T) {
	tests := []struct {
		name    string
		options snapshotDirOptions
	}{
		{
			name:    "no base block hash",
			options: snapshotDirOptions{skipBaseHash: true},
		},
		{
			name:    "import not finished",
			options: snapshotDirOptions{leaveImport: true},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tc := newTestContext(t)
			tc.initNormalDir()
			tc.writeSnapshotDir(test.options)

			manager, _ := tc.mustOpenManager()
			if manager.State() != StateNormal {
				t.Fatalf("expected state %s, got %s", StateNormal, manager.State())
			}
			if tc.exists(snapshotDirName) {
				t.Fatalf("the partially loaded snapshot chainstate wasn't removed")
			}
		})
	}
}

func TestUnknownSnapshotChainstate(t *testing.T) {
	tc := newTestContext(t)
	tc.initNormalDir()
	unknownHash := chainhash.Hash{0xff}
	tc.writeSnapshotDir(snapshotDirOptions{baseHash: &unknownHash})

	_, _, err := tc.openManager()
	var unknownErr *UnknownSnapshotChainstateError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownSnapshotChainstateError, got %+v", err)
	}
	if !strings.Contains(err.Error(), "Assumeutxo data not found for the given blockhash") {
		t.Fatalf("unexpected error message: %s", err)
	}
	if !tc.exists(snapshotDirName) {
		t.Fatalf("the snapshot chainstate of an unknown base must be kept for the operator")
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	tc := newTestContext(t)
	manager, _ := tc.mustOpenManager()
	_, err := manager.LoadSnapshot(filepath.Join(tc.dataDir, "missing.dat"))
	if err == nil || !strings.Contains(err.Error(), "couldn't open snapshot file") {
		t.Fatalf("expected an open error, got %v", err)
	}

	// A failed load doesn't keep the manager in its loading state.
	if manager.loading {
		t.Fatalf("the manager is still loading after a failed load")
	}
	if tc.exists(snapshotDirName) {
		t.Fatalf("a failed load created the snapshot directory")
	}
}

func TestRegisterSnapshot(t *testing.T) {
	tests := []struct {
		name string
		// normalTipHeight is how far the normal chainstate got while the
		// snapshot coins were loading.
		normalTipHeight int32
		expectedBehind  bool
	}{
		{
			name:            "normal chainstate below the base",
			normalTipHeight: testBaseHeight - 1,
		},
		{
			name:            "normal chainstate reached the base",
			normalTipHeight: testBaseHeight,
			expectedBehind:  true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tc := newTestContext(t)
			manager, _ := tc.mustOpenManager()
			tc.writeSnapshotDir(snapshotDirOptions{})
			snapshot, err := openChainstate(RoleSnapshot, tc.path(snapshotDirName), tc.cfg, tc.engine)
			if err != nil {
				t.Fatalf("openChainstate unexpectedly failed: %+v", err)
			}

			err = manager.normal.coins.Flush(&coinstore.Tip{
				Hash:   chainhash.Hash{byte(test.normalTipHeight)},
				Height: test.normalTipHeight,
			})
			if err != nil {
				t.Fatalf("Flush unexpectedly failed: %+v", err)
			}

			err = manager.registerSnapshot(snapshot, testBaseHeight)
			if !test.expectedBehind {
				if err != nil {
					t.Fatalf("registerSnapshot unexpectedly failed: %+v", err)
				}
				if manager.State() != StateSnapshotUnvalidated {
					t.Fatalf("expected state %s, got %s", StateSnapshotUnvalidated, manager.State())
				}
				if manager.TipHeight() != testBaseHeight {
					t.Fatalf("expected the active tip at %d, got %d", testBaseHeight, manager.TipHeight())
				}
				return
			}

			var behindErr *SnapshotBehindTipError
			if !errors.As(err, &behindErr) {
				t.Fatalf("expected SnapshotBehindTipError, got %+v", err)
			}
			if behindErr.BaseHash != testBaseHash || behindErr.TipHeight != test.normalTipHeight {
				t.Fatalf("unexpected error fields %+v", behindErr)
			}
			if manager.State() != StateNormal {
				t.Fatalf("expected state %s, got %s", StateNormal, manager.State())
			}
			if tc.exists(snapshotDirName) {
				t.Fatalf("the rejected snapshot chainstate wasn't removed")
			}
		})
	}
}
