package domain_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain"
	"github.com/kaspanet/chainstated/domain/backgroundvalidator"
	"github.com/kaspanet/chainstated/domain/chainparams"
	"github.com/kaspanet/chainstated/domain/chainstate"
	"github.com/kaspanet/chainstated/domain/snapshot"
	"github.com/kaspanet/chainstated/domain/testutils"
	"github.com/kaspanet/chainstated/domain/utxo"
	"github.com/pkg/errors"
)

const (
	snapshotHeight = 299
	spendHeight    = 121
)

// sourceChain is a chain mined by a source node together with a snapshot
// of it at snapshotHeight.
type sourceChain struct {
	node         domain.Domain
	spend        *wire.MsgTx
	snapshotPath string
	dump         *chainstate.DumpResult
}

// buildSourceChain mines snapshotHeight blocks, with a transaction spending
// the first coinbase mined at spendHeight, dumps the resulting coins and
// adds them to params' AssumeUTXO table.
func buildSourceChain(t *testing.T, params *chainparams.Params) *sourceChain {
	node := testutils.NewTestDomain(t, params)
	_, err := node.GenerateBlocks(spendHeight-1, nil)
	if err != nil {
		t.Fatalf("GenerateBlocks unexpectedly failed: %+v", err)
	}
	firstCoinbase := testutils.CoinbaseOutpoint(testutils.BlockAtHeight(t, node, 1))
	spend := testutils.SpendTx(firstCoinbase, 49*btcutil.SatoshiPerBitcoin)
	_, err = node.Mempool().AcceptTransaction(spend)
	if err != nil {
		t.Fatalf("AcceptTransaction unexpectedly failed: %+v", err)
	}
	_, err = node.GenerateBlocks(snapshotHeight-spendHeight+1, nil)
	if err != nil {
		t.Fatalf("GenerateBlocks unexpectedly failed: %+v", err)
	}
	if node.Mempool().Count() != 0 {
		t.Fatalf("the spending transaction wasn't mined")
	}

	snapshotPath := filepath.Join(t.TempDir(), "utxos.dat")
	dump, err := node.ChainstateManager().DumpSnapshot(snapshotPath)
	if err != nil {
		t.Fatalf("DumpSnapshot unexpectedly failed: %+v", err)
	}
	if dump.CoinsWritten != snapshotHeight {
		t.Fatalf("expected %d coins to be written, got %d", snapshotHeight, dump.CoinsWritten)
	}
	if dump.BaseHeight != snapshotHeight {
		t.Fatalf("expected the snapshot at height %d, got %d", snapshotHeight, dump.BaseHeight)
	}
	// The genesis block, a coinbase per block and the spend.
	if dump.ChainTxCount != snapshotHeight+2 {
		t.Fatalf("expected nchaintx %d, got %d", snapshotHeight+2, dump.ChainTxCount)
	}

	err = params.AddAssumeUTXO(chainparams.AssumeUTXOData{
		Height:       dump.BaseHeight,
		BlockHash:    dump.BaseHash,
		ContentHash:  dump.ContentHash,
		CoinsCount:   dump.CoinsWritten,
		ChainTxCount: dump.ChainTxCount,
	})
	if err != nil {
		t.Fatalf("AddAssumeUTXO unexpectedly failed: %+v", err)
	}
	return &sourceChain{node: node, spend: spend, snapshotPath: snapshotPath, dump: dump}
}

func waitFor(t *testing.T, description string, condition func() bool) {
	deadline := time.Now().Add(30 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", description)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSnapshotBootstrap(t *testing.T) {
	testutils.ForAllTestNets(t, func(t *testing.T, params *chainparams.Params) {
		source := buildSourceChain(t, params)
		node := testutils.NewTestDomain(t, params)
		manager := node.ChainstateManager()

		// Nothing changes when the base header is unknown.
		_, err := manager.LoadSnapshot(source.snapshotPath)
		var headersErr *chainstate.HeadersNotSyncedError
		if !errors.As(err, &headersErr) {
			t.Fatalf("expected HeadersNotSyncedError, got %+v", err)
		}
		if !strings.Contains(err.Error(), "must appear in the headers chain") {
			t.Fatalf("unexpected error message: %s", err)
		}
		if len(manager.Chainstates()) != 1 || manager.State() != chainstate.StateNormal {
			t.Fatalf("a failed load changed the chainstates")
		}

		testutils.SyncHeaders(t, source.node, node, 1, snapshotHeight)
		testutils.SyncBlocks(t, source.node, node, 1, spendHeight-1)

		// A transaction in the mempool blocks activation until it's mined.
		_, err = node.Mempool().AcceptTransaction(source.spend)
		if err != nil {
			t.Fatalf("AcceptTransaction unexpectedly failed: %+v", err)
		}
		_, err = manager.LoadSnapshot(source.snapshotPath)
		var mempoolErr *chainstate.MempoolNotEmptyError
		if !errors.As(err, &mempoolErr) {
			t.Fatalf("expected MempoolNotEmptyError, got %+v", err)
		}
		testutils.SyncBlocks(t, source.node, node, spendHeight, spendHeight)
		if node.Mempool().Count() != 0 {
			t.Fatalf("the mined transaction is still in the mempool")
		}

		result, err := manager.LoadSnapshot(source.snapshotPath)
		if err != nil {
			t.Fatalf("LoadSnapshot unexpectedly failed: %+v", err)
		}
		if result.CoinsLoaded != snapshotHeight || result.BaseHeight != snapshotHeight {
			t.Fatalf("unexpected load result %+v", result)
		}
		if result.BaseHash != source.dump.BaseHash {
			t.Fatalf("expected base %s, got %s", source.dump.BaseHash, result.BaseHash)
		}

		chainstates := manager.Chainstates()
		if len(chainstates) != 2 {
			t.Fatalf("expected 2 chainstates, got %d", len(chainstates))
		}
		normal, snapshotChainstate := chainstates[0], chainstates[1]
		if normal.Role != chainstate.RoleNormal || !normal.Validated || normal.SnapshotBlockHash != nil {
			t.Fatalf("unexpected normal chainstate %+v", normal)
		}
		if snapshotChainstate.Role != chainstate.RoleSnapshot || snapshotChainstate.Validated ||
			*snapshotChainstate.SnapshotBlockHash != source.dump.BaseHash ||
			snapshotChainstate.Blocks != snapshotHeight || snapshotChainstate.Coins != snapshotHeight {
			t.Fatalf("unexpected snapshot chainstate %+v", snapshotChainstate)
		}
		if manager.ChainstateForHeight(snapshotHeight-1) != chainstate.RoleNormal ||
			manager.ChainstateForHeight(snapshotHeight) != chainstate.RoleSnapshot {
			t.Fatalf("heights are routed to the wrong chainstates")
		}

		_, err = manager.LoadSnapshot(source.snapshotPath)
		var alreadyLoadingErr *chainstate.AlreadyLoadingError
		if !errors.As(err, &alreadyLoadingErr) {
			t.Fatalf("expected AlreadyLoadingError, got %+v", err)
		}

		// Coins of the snapshot are served right away.
		lateCoinbase := testutils.CoinbaseOutpoint(testutils.BlockAtHeight(t, source.node, snapshotHeight))
		_, found, err := manager.GetCoin(lateCoinbase)
		if err != nil || !found {
			t.Fatalf("GetCoin of a snapshot coin failed: %v (found: %t)", err, found)
		}

		// Dumping the freshly loaded chainstate reproduces the snapshot.
		redump, err := manager.DumpSnapshot(filepath.Join(t.TempDir(), "redump.dat"))
		if err != nil {
			t.Fatalf("DumpSnapshot unexpectedly failed: %+v", err)
		}
		if redump.ContentHash != source.dump.ContentHash || redump.CoinsWritten != source.dump.CoinsWritten {
			t.Fatalf("the loaded snapshot differs from the dumped one")
		}

		// New blocks extend the snapshot chainstate.
		_, err = node.GenerateBlocks(1, nil)
		if err != nil {
			t.Fatalf("GenerateBlocks unexpectedly failed: %+v", err)
		}
		if manager.TipHeight() != snapshotHeight+1 {
			t.Fatalf("expected the active tip at %d, got %d", snapshotHeight+1, manager.TipHeight())
		}

		testutils.SyncBlocks(t, source.node, node, spendHeight+1, snapshotHeight)
		manager.WaitForBackgroundValidation()

		chainstates = manager.Chainstates()
		if len(chainstates) != 1 {
			t.Fatalf("expected a single chainstate after validation, got %d", len(chainstates))
		}
		if manager.State() != chainstate.StateSnapshotBecameNormal {
			t.Fatalf("unexpected state %s", manager.State())
		}
		if chainstates[0].Blocks != snapshotHeight+1 || !chainstates[0].Validated {
			t.Fatalf("unexpected chainstate after validation %+v", chainstates[0])
		}
	})
}

func TestSnapshotLoadFailures(t *testing.T) {
	params := chainparams.RegressionNetParams.Clone()
	source := buildSourceChain(t, params)
	snapshotBytes, err := os.ReadFile(source.snapshotPath)
	if err != nil {
		t.Fatalf("ReadFile unexpectedly failed: %s", err)
	}

	dataDir := t.TempDir()
	node := testutils.OpenTestDomain(t, params, dataDir)
	defer node.Close()
	testutils.SyncHeaders(t, source.node, node, 1, snapshotHeight)
	manager := node.ChainstateManager()

	writeVariant := func(name string, modify func(data []byte) []byte) string {
		data := modify(append([]byte{}, snapshotBytes...))
		path := filepath.Join(t.TempDir(), name)
		err := os.WriteFile(path, data, 0600)
		if err != nil {
			t.Fatalf("WriteFile unexpectedly failed: %s", err)
		}
		return path
	}
	setCount := func(count uint64) func([]byte) []byte {
		return func(data []byte) []byte {
			for i := 0; i < 8; i++ {
				data[32+i] = byte(count >> (8 * i))
			}
			return data
		}
	}

	tests := []struct {
		name            string
		modify          func(data []byte) []byte
		expectedMessage string
		expectedCause   interface{}
	}{
		{
			name:            "one coin less",
			modify:          setCount(snapshotHeight - 1),
			expectedMessage: "bad snapshot - coins left over after deserializing 298 coins",
			expectedCause:   new(*snapshot.FormatError),
		},
		{
			name:            "one coin more",
			modify:          setCount(snapshotHeight + 1),
			expectedMessage: "bad snapshot format or truncated snapshot after deserializing 299 coins",
			expectedCause:   new(*snapshot.FormatError),
		},
		{
			name: "flipped txid byte",
			modify: func(data []byte) []byte {
				data[snapshot.MetadataSize] ^= 0xff
				return data
			},
			expectedMessage: "bad snapshot content hash",
			expectedCause:   new(*snapshot.IntegrityError),
		},
		{
			name: "truncated",
			modify: func(data []byte) []byte {
				return data[:len(data)-1]
			},
			expectedMessage: "after deserializing",
			expectedCause:   new(*snapshot.FormatError),
		},
	}
	for _, test := range tests {
		path := writeVariant(test.name, test.modify)
		_, err := manager.LoadSnapshot(path)
		var corruptErr *chainstate.SnapshotCorruptError
		if !errors.As(err, &corruptErr) {
			t.Fatalf("%s: expected SnapshotCorruptError, got %+v", test.name, err)
		}
		if !errors.As(err, test.expectedCause) {
			t.Fatalf("%s: unexpected cause %+v", test.name, err)
		}
		if !strings.Contains(err.Error(), test.expectedMessage) {
			t.Fatalf("%s: expected message %q, got %q", test.name, test.expectedMessage, err)
		}
		if len(manager.Chainstates()) != 1 {
			t.Fatalf("%s: a failed load left a snapshot chainstate", test.name)
		}
		if _, err := os.Stat(filepath.Join(dataDir, "chainstate_snapshot")); !os.IsNotExist(err) {
			t.Fatalf("%s: a failed load left its directory behind", test.name)
		}
	}

	// A snapshot of a block that isn't in the table.
	unrecognized := writeVariant("unrecognized", func(data []byte) []byte {
		data[0] ^= 0xff
		return data
	})
	_, err = manager.LoadSnapshot(unrecognized)
	var unrecognizedErr *chainstate.UnrecognizedSnapshotError
	if !errors.As(err, &unrecognizedErr) {
		t.Fatalf("expected UnrecognizedSnapshotError, got %+v", err)
	}
	if !strings.Contains(err.Error(), "assumeutxo block hash in snapshot metadata not recognized") {
		t.Fatalf("unexpected error message: %s", err)
	}

	// Once the normal chainstate has reached the base there's no point.
	testutils.SyncBlocks(t, source.node, node, 1, snapshotHeight)
	_, err = manager.LoadSnapshot(source.snapshotPath)
	var behindTipErr *chainstate.SnapshotBehindTipError
	if !errors.As(err, &behindTipErr) {
		t.Fatalf("expected SnapshotBehindTipError, got %+v", err)
	}
}

func TestDumpSnapshot(t *testing.T) {
	params := chainparams.RegressionNetParams.Clone()
	dataDir := t.TempDir()
	node := testutils.OpenTestDomain(t, params, dataDir)
	defer node.Close()
	_, err := node.GenerateBlocks(10, nil)
	if err != nil {
		t.Fatalf("GenerateBlocks unexpectedly failed: %+v", err)
	}
	manager := node.ChainstateManager()

	result, err := manager.DumpSnapshot("utxos.dat")
	if err != nil {
		t.Fatalf("DumpSnapshot unexpectedly failed: %+v", err)
	}
	expectedPath := filepath.Join(dataDir, "utxos.dat")
	if result.Path != expectedPath {
		t.Fatalf("expected a relative path to be written to %s, got %s", expectedPath, result.Path)
	}
	if result.CoinsWritten != 10 || result.BaseHeight != 10 || result.ChainTxCount != 11 {
		t.Fatalf("unexpected dump result %+v", result)
	}
	if result.FormatVersion != snapshot.FormatVersion {
		t.Fatalf("unexpected format version %d", result.FormatVersion)
	}
	if _, err := os.Stat(expectedPath + ".incomplete"); !os.IsNotExist(err) {
		t.Fatalf("the temporary file was left behind")
	}

	file, err := os.Open(expectedPath)
	if err != nil {
		t.Fatalf("Open unexpectedly failed: %s", err)
	}
	defer file.Close()
	reader, err := snapshot.NewReader(file)
	if err != nil {
		t.Fatalf("NewReader unexpectedly failed: %+v", err)
	}
	for reader.Next() {
		_, _, err := reader.Get()
		if err != nil {
			t.Fatalf("Get unexpectedly failed: %+v", err)
		}
	}
	contentHash, err := reader.Finish(&result.ContentHash)
	if err != nil {
		t.Fatalf("Finish unexpectedly failed: %+v", err)
	}
	if *contentHash != result.ContentHash {
		t.Fatalf("unexpected content hash %s", contentHash)
	}

	_, err = manager.DumpSnapshot("utxos.dat")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected an already exists error, got %v", err)
	}

	_, err = manager.DumpSnapshot(filepath.Join(dataDir, "missing", "utxos.dat"))
	if err == nil || !strings.Contains(err.Error(), "Couldn't open file") {
		t.Fatalf("expected a couldn't open error, got %v", err)
	}
}

func TestBackgroundValidationResumesAfterRestart(t *testing.T) {
	params := chainparams.RegressionNetParams.Clone()
	source := buildSourceChain(t, params)

	dataDir := t.TempDir()
	node := testutils.OpenTestDomain(t, params, dataDir)
	testutils.SyncHeaders(t, source.node, node, 1, snapshotHeight)
	_, err := node.ChainstateManager().LoadSnapshot(source.snapshotPath)
	if err != nil {
		t.Fatalf("LoadSnapshot unexpectedly failed: %+v", err)
	}

	const interruptedHeight = 150
	testutils.SyncBlocks(t, source.node, node, 1, interruptedHeight)
	waitFor(t, "background validation to reach the interrupted height", func() bool {
		return node.ChainstateManager().Chainstates()[0].Blocks == interruptedHeight
	})
	err = node.Close()
	if err != nil {
		t.Fatalf("Close unexpectedly failed: %+v", err)
	}

	node = testutils.OpenTestDomain(t, params, dataDir)
	defer node.Close()
	manager := node.ChainstateManager()
	chainstates := manager.Chainstates()
	if len(chainstates) != 2 || manager.State() != chainstate.StateSnapshotUnvalidated {
		t.Fatalf("expected both chainstates after the restart, got %d in state %s", len(chainstates), manager.State())
	}
	if chainstates[0].Blocks != interruptedHeight {
		t.Fatalf("expected the normal chainstate to resume from %d, got %d", interruptedHeight, chainstates[0].Blocks)
	}

	testutils.SyncBlocks(t, source.node, node, interruptedHeight+1, snapshotHeight)
	manager.WaitForBackgroundValidation()
	if len(manager.Chainstates()) != 1 {
		t.Fatalf("expected a single chainstate after validation")
	}
}

func TestStopAtHeightDuringBackgroundValidation(t *testing.T) {
	params := chainparams.RegressionNetParams.Clone()
	source := buildSourceChain(t, params)

	const stopHeight = 200
	var stopRequested int32
	node, err := domain.New(&domain.Config{
		DataDir:        t.TempDir(),
		Params:         params,
		DBCacheSizeMiB: 8,
		StopAtHeight:   stopHeight,
		OnStopAtHeight: func() { atomic.StoreInt32(&stopRequested, 1) },
	})
	if err != nil {
		t.Fatalf("domain.New unexpectedly failed: %+v", err)
	}
	defer node.Close()
	err = node.Start()
	if err != nil {
		t.Fatalf("Start unexpectedly failed: %+v", err)
	}

	testutils.SyncHeaders(t, source.node, node, 1, snapshotHeight)
	_, err = node.ChainstateManager().LoadSnapshot(source.snapshotPath)
	if err != nil {
		t.Fatalf("LoadSnapshot unexpectedly failed: %+v", err)
	}
	testutils.SyncBlocks(t, source.node, node, 1, stopHeight-1)
	waitFor(t, "background validation to reach the height below the stop height", func() bool {
		return node.ChainstateManager().Chainstates()[0].Blocks == stopHeight-1
	})
	if atomic.LoadInt32(&stopRequested) != 0 {
		t.Fatalf("a stop was requested below the stop height")
	}
	testutils.SyncBlocks(t, source.node, node, stopHeight, stopHeight)
	waitFor(t, "the stop request", func() bool {
		return atomic.LoadInt32(&stopRequested) == 1
	})
}

// tamperedSnapshot rewrites the source snapshot with the amount of its
// first coin changed, and pins the result instead of the original.
func tamperedSnapshot(t *testing.T, params *chainparams.Params, source *sourceChain) string {
	file, err := os.Open(source.snapshotPath)
	if err != nil {
		t.Fatalf("Open unexpectedly failed: %s", err)
	}
	defer file.Close()
	reader, err := snapshot.NewReader(file)
	if err != nil {
		t.Fatalf("NewReader unexpectedly failed: %+v", err)
	}

	path := filepath.Join(t.TempDir(), "tampered.dat")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create unexpectedly failed: %s", err)
	}
	defer out.Close()
	writer, err := snapshot.NewWriter(out, reader.Metadata())
	if err != nil {
		t.Fatalf("NewWriter unexpectedly failed: %+v", err)
	}
	for reader.Next() {
		outpoint, entry, err := reader.Get()
		if err != nil {
			t.Fatalf("Get unexpectedly failed: %+v", err)
		}
		if writer.CoinsWritten() == 0 {
			entry = utxo.NewEntry(entry.Amount()-1, entry.PkScript(), entry.IsCoinbase(), entry.BlockHeight())
		}
		err = writer.WriteCoin(outpoint, entry)
		if err != nil {
			t.Fatalf("WriteCoin unexpectedly failed: %+v", err)
		}
	}
	contentHash, err := writer.Finish()
	if err != nil {
		t.Fatalf("Finish unexpectedly failed: %+v", err)
	}

	params.AssumeUTXO = nil
	err = params.AddAssumeUTXO(chainparams.AssumeUTXOData{
		Height:       source.dump.BaseHeight,
		BlockHash:    source.dump.BaseHash,
		ContentHash:  *contentHash,
		CoinsCount:   source.dump.CoinsWritten,
		ChainTxCount: source.dump.ChainTxCount,
	})
	if err != nil {
		t.Fatalf("AddAssumeUTXO unexpectedly failed: %+v", err)
	}
	return path
}

func TestBackgroundValidationMismatch(t *testing.T) {
	params := chainparams.RegressionNetParams.Clone()
	source := buildSourceChain(t, params)
	tamperedPath := tamperedSnapshot(t, params, source)

	dataDir := t.TempDir()
	fatalErrors := make(chan error, 1)
	node, err := domain.New(&domain.Config{
		DataDir:        dataDir,
		Params:         params,
		DBCacheSizeMiB: 8,
		OnFatalError:   func(err error) { fatalErrors <- err },
	})
	if err != nil {
		t.Fatalf("domain.New unexpectedly failed: %+v", err)
	}
	defer node.Close()
	err = node.Start()
	if err != nil {
		t.Fatalf("Start unexpectedly failed: %+v", err)
	}

	testutils.SyncHeaders(t, source.node, node, 1, snapshotHeight)
	_, err = node.ChainstateManager().LoadSnapshot(tamperedPath)
	if err != nil {
		t.Fatalf("LoadSnapshot of the tampered snapshot unexpectedly failed: %+v", err)
	}
	testutils.SyncBlocks(t, source.node, node, 1, snapshotHeight)

	select {
	case err := <-fatalErrors:
		var mismatchErr *backgroundvalidator.FatalValidationMismatchError
		if !errors.As(err, &mismatchErr) {
			t.Fatalf("expected FatalValidationMismatchError, got %+v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatalf("timed out waiting for the mismatch")
	}
	manager := node.ChainstateManager()
	manager.WaitForBackgroundValidation()
	if len(manager.Chainstates()) != 1 || manager.State() != chainstate.StateNormal {
		t.Fatalf("the invalid snapshot chainstate is still in use")
	}
	if _, err := os.Stat(filepath.Join(dataDir, "chainstate_snapshot_INVALID")); err != nil {
		t.Fatalf("the invalid snapshot chainstate wasn't moved aside: %s", err)
	}
}
