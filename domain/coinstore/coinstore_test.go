package coinstore

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/utxo"
	"github.com/kaspanet/chainstated/infrastructure/db/database/ldb"
	"github.com/pkg/errors"
)

func prepareCoinStoreForTest(t *testing.T, testName string) (cs *CoinStore, path string, teardownFunc func()) {
	path = t.TempDir()
	db, err := ldb.NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("%s: NewLevelDB unexpectedly failed: %s", testName, err)
	}
	cs, err = Open("test", db, 10)
	if err != nil {
		t.Fatalf("%s: Open unexpectedly failed: %s", testName, err)
	}
	teardownFunc = func() {
		err := db.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
	}
	return cs, path, teardownFunc
}

func reopenCoinStore(t *testing.T, testName string, path string) (*CoinStore, func()) {
	db, err := ldb.NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("%s: NewLevelDB unexpectedly failed: %s", testName, err)
	}
	cs, err := Open("test", db, 10)
	if err != nil {
		t.Fatalf("%s: Open unexpectedly failed: %s", testName, err)
	}
	return cs, func() { db.Close() }
}

func testOutpoint(i int) *wire.OutPoint {
	txID := chainhash.DoubleHashH([]byte{byte(i), byte(i >> 8)})
	return wire.NewOutPoint(&txID, uint32(i%2))
}

func testEntry(i int) *utxo.Entry {
	return utxo.NewEntry(uint64(i)*100, []byte{txscript.OP_TRUE}, false, uint32(i))
}

func TestCoinStoreInsertSpendFlush(t *testing.T) {
	cs, path, teardownFunc := prepareCoinStoreForTest(t, "TestCoinStoreInsertSpendFlush")

	for i := 0; i < 50; i++ {
		err := cs.Insert(testOutpoint(i), testEntry(i))
		if err != nil {
			t.Fatalf("Insert %d unexpectedly failed: %s", i, err)
		}
	}
	err := cs.Insert(testOutpoint(7), testEntry(7))
	if !errors.Is(err, ErrCoinExists) {
		t.Fatalf("Insert of a staged coin: expected ErrCoinExists, got %v", err)
	}

	tip := &Tip{Hash: chainhash.Hash{1}, Height: 1}
	err = cs.Flush(tip)
	if err != nil {
		t.Fatalf("Flush unexpectedly failed: %s", err)
	}
	err = cs.Insert(testOutpoint(7), testEntry(7))
	if !errors.Is(err, ErrCoinExists) {
		t.Fatalf("Insert of a committed coin: expected ErrCoinExists, got %v", err)
	}

	for i := 0; i < 10; i++ {
		entry, err := cs.Spend(testOutpoint(i))
		if err != nil {
			t.Fatalf("Spend %d unexpectedly failed: %s", i, err)
		}
		if !entry.Equal(testEntry(i)) {
			t.Fatalf("Spend %d returned %s", i, entry)
		}
	}
	_, err = cs.Spend(testOutpoint(3))
	if !errors.Is(err, ErrCoinNotFound) {
		t.Fatalf("double Spend: expected ErrCoinNotFound, got %v", err)
	}
	found, err := cs.Has(testOutpoint(3))
	if err != nil || found {
		t.Fatalf("Has of a spent coin: %t, %v", found, err)
	}
	if cs.Count() != 40 {
		t.Fatalf("Count: got %d, want 40", cs.Count())
	}

	tip = &Tip{Hash: chainhash.Hash{2}, Height: 2}
	err = cs.Flush(tip)
	if err != nil {
		t.Fatalf("Flush unexpectedly failed: %s", err)
	}
	commitment := cs.Commitment()
	teardownFunc()

	reopened, closeFunc := reopenCoinStore(t, "TestCoinStoreInsertSpendFlush", path)
	defer closeFunc()
	if reopened.Count() != 40 {
		t.Fatalf("Count after reopen: got %d, want 40", reopened.Count())
	}
	if *reopened.Tip() != *tip {
		t.Fatalf("Tip after reopen: got %s, want %s", reopened.Tip(), tip)
	}
	if *reopened.Commitment() != *commitment {
		t.Fatalf("Commitment after reopen: got %s, want %s", reopened.Commitment(), commitment)
	}
	entry, found, err := reopened.Get(testOutpoint(42))
	if err != nil || !found || !entry.Equal(testEntry(42)) {
		t.Fatalf("Get after reopen: %s, %t, %v", entry, found, err)
	}
}

func TestCoinStoreDiscard(t *testing.T) {
	cs, _, teardownFunc := prepareCoinStoreForTest(t, "TestCoinStoreDiscard")
	defer teardownFunc()

	err := cs.Insert(testOutpoint(1), testEntry(1))
	if err != nil {
		t.Fatalf("Insert unexpectedly failed: %s", err)
	}
	err = cs.Flush(&Tip{Height: 1})
	if err != nil {
		t.Fatalf("Flush unexpectedly failed: %s", err)
	}
	commitment := cs.Commitment()

	_, err = cs.Spend(testOutpoint(1))
	if err != nil {
		t.Fatalf("Spend unexpectedly failed: %s", err)
	}
	err = cs.Insert(testOutpoint(2), testEntry(2))
	if err != nil {
		t.Fatalf("Insert unexpectedly failed: %s", err)
	}
	cs.Discard()

	if cs.HasStagedChanges() {
		t.Fatalf("staged changes survived Discard")
	}
	if cs.Count() != 1 || *cs.Commitment() != *commitment {
		t.Fatalf("Discard didn't restore the committed state")
	}
	found, err := cs.Has(testOutpoint(1))
	if err != nil || !found {
		t.Fatalf("coin 1 missing after Discard: %v", err)
	}
}

// TestCommitmentIsOrderIndependent checks that two stores reaching the
// same set of coins through different histories have equal commitments.
func TestCommitmentIsOrderIndependent(t *testing.T) {
	first, _, firstTeardown := prepareCoinStoreForTest(t, "TestCommitmentIsOrderIndependent")
	defer firstTeardown()
	second, _, secondTeardown := prepareCoinStoreForTest(t, "TestCommitmentIsOrderIndependent")
	defer secondTeardown()

	for i := 0; i < 20; i++ {
		err := first.Insert(testOutpoint(i), testEntry(i))
		if err != nil {
			t.Fatalf("Insert unexpectedly failed: %s", err)
		}
	}
	for i := 0; i < 5; i++ {
		_, err := first.Spend(testOutpoint(i))
		if err != nil {
			t.Fatalf("Spend unexpectedly failed: %s", err)
		}
	}
	for i := 19; i >= 5; i-- {
		err := second.Insert(testOutpoint(i), testEntry(i))
		if err != nil {
			t.Fatalf("Insert unexpectedly failed: %s", err)
		}
	}
	if *first.Commitment() != *second.Commitment() {
		t.Fatalf("commitments differ: %s != %s", first.Commitment(), second.Commitment())
	}
	err := second.Insert(testOutpoint(100), testEntry(100))
	if err != nil {
		t.Fatalf("Insert unexpectedly failed: %s", err)
	}
	if *first.Commitment() == *second.Commitment() {
		t.Fatalf("commitments of different sets are equal")
	}
}

func TestIteratorOrderAndIsolation(t *testing.T) {
	cs, _, teardownFunc := prepareCoinStoreForTest(t, "TestIteratorOrderAndIsolation")
	defer teardownFunc()

	for i := 0; i < 30; i++ {
		err := cs.Insert(testOutpoint(i), testEntry(i))
		if err != nil {
			t.Fatalf("Insert unexpectedly failed: %s", err)
		}
	}
	err := cs.Flush(&Tip{Hash: chainhash.Hash{3}, Height: 3})
	if err != nil {
		t.Fatalf("Flush unexpectedly failed: %s", err)
	}

	iterator, err := cs.OpenIterator()
	if err != nil {
		t.Fatalf("OpenIterator unexpectedly failed: %s", err)
	}
	defer iterator.Close()

	// Changes flushed after the iterator was opened must not be visible
	_, err = cs.Spend(testOutpoint(0))
	if err != nil {
		t.Fatalf("Spend unexpectedly failed: %s", err)
	}
	err = cs.Flush(&Tip{Hash: chainhash.Hash{4}, Height: 4})
	if err != nil {
		t.Fatalf("Flush unexpectedly failed: %s", err)
	}

	if iterator.Count() != 30 || iterator.Tip().Height != 3 {
		t.Fatalf("iterator metadata: count %d, tip %s", iterator.Count(), iterator.Tip())
	}
	var previousKey []byte
	iterated := 0
	for iterator.Next() {
		outpoint, entry, err := iterator.Get()
		if err != nil {
			t.Fatalf("Get unexpectedly failed: %s", err)
		}
		key := utxo.SerializeOutpointKey(outpoint)
		if previousKey != nil && bytes.Compare(previousKey, key) >= 0 {
			t.Fatalf("coins are not iterated in key order")
		}
		previousKey = key
		if entry.BlockHeight() >= 30 {
			t.Fatalf("unexpected entry %s", entry)
		}
		iterated++
	}
	if iterated != 30 {
		t.Fatalf("iterated %d coins, want 30", iterated)
	}
}

func TestImportMarker(t *testing.T) {
	cs, path, teardownFunc := prepareCoinStoreForTest(t, "TestImportMarker")

	err := cs.BeginImport()
	if err != nil {
		t.Fatalf("BeginImport unexpectedly failed: %s", err)
	}
	for i := 0; i < 10; i++ {
		err := cs.Insert(testOutpoint(i), testEntry(i))
		if err != nil {
			t.Fatalf("Insert unexpectedly failed: %s", err)
		}
	}
	err = cs.FlushImportBatch()
	if err != nil {
		t.Fatalf("FlushImportBatch unexpectedly failed: %s", err)
	}
	teardownFunc()

	// A store reopened in the middle of an import is still marked
	reopened, closeFunc := reopenCoinStore(t, "TestImportMarker", path)
	importing, err := reopened.IsImporting()
	if err != nil || !importing {
		t.Fatalf("IsImporting after an interrupted import: %t, %v", importing, err)
	}
	if reopened.Tip() != nil {
		t.Fatalf("an interrupted import unexpectedly has a tip")
	}

	err = reopened.FinishImport(&Tip{Hash: chainhash.Hash{9}, Height: 9})
	if err != nil {
		t.Fatalf("FinishImport unexpectedly failed: %s", err)
	}
	importing, err = reopened.IsImporting()
	if err != nil || importing {
		t.Fatalf("IsImporting after FinishImport: %t, %v", importing, err)
	}
	closeFunc()
}
