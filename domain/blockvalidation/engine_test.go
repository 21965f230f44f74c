package blockvalidation

import (
	"testing"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/chainparams"
	"github.com/kaspanet/chainstated/domain/coinstore"
	"github.com/kaspanet/chainstated/domain/utxo"
	"github.com/pkg/errors"
)

type mapCoinSet map[wire.OutPoint]*utxo.Entry

func (m mapCoinSet) Get(outpoint *wire.OutPoint) (*utxo.Entry, bool, error) {
	entry, ok := m[*outpoint]
	return entry, ok, nil
}

func (m mapCoinSet) Insert(outpoint *wire.OutPoint, entry *utxo.Entry) error {
	if _, ok := m[*outpoint]; ok {
		return coinstore.ErrCoinExists
	}
	m[*outpoint] = entry
	return nil
}

func (m mapCoinSet) Spend(outpoint *wire.OutPoint) (*utxo.Entry, error) {
	entry, ok := m[*outpoint]
	if !ok {
		return nil, coinstore.ErrCoinNotFound
	}
	delete(m, *outpoint)
	return entry, nil
}

var opTrueScript = []byte{txscript.OP_TRUE}

func coinbaseTx(height int32, value int64) *wire.MsgTx {
	signatureScript, _ := txscript.NewScriptBuilder().AddInt64(int64(height)).Script()
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex),
		SignatureScript:  signatureScript,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(value, opTrueScript))
	return tx
}

func spendTx(outpoint *wire.OutPoint, value int64) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(outpoint, nil, nil))
	tx.AddTxOut(wire.NewTxOut(value, opTrueScript))
	return tx
}

func makeBlock(transactions ...*wire.MsgTx) *wire.MsgBlock {
	block := &wire.MsgBlock{Transactions: transactions}
	utilTxs := make([]*btcutil.Tx, len(transactions))
	for i, tx := range transactions {
		utilTxs[i] = btcutil.NewTx(tx)
	}
	block.Header.MerkleRoot = blockchain.CalcMerkleRoot(utilTxs, false)
	return block
}

func TestCheckBlockSanity(t *testing.T) {
	engine := New(&chainparams.RegressionNetParams)
	coinbase := coinbaseTx(1, 50*btcutil.SatoshiPerBitcoin)
	fundingOutpoint := wire.NewOutPoint(&chainhash.Hash{1}, 0)

	badMerkleRoot := makeBlock(coinbase)
	badMerkleRoot.Header.MerkleRoot = chainhash.Hash{1}

	negativeOutput := spendTx(fundingOutpoint, -1)
	duplicateInputs := spendTx(fundingOutpoint, 1)
	duplicateInputs.AddTxIn(wire.NewTxIn(fundingOutpoint, nil, nil))

	tests := []struct {
		name          string
		block         *wire.MsgBlock
		expectedError error
	}{
		{name: "valid", block: makeBlock(coinbase, spendTx(fundingOutpoint, 1))},
		{name: "no transactions", block: &wire.MsgBlock{}, expectedError: ErrNoTransactions},
		{name: "first not coinbase", block: makeBlock(spendTx(fundingOutpoint, 1)),
			expectedError: ErrFirstTxNotCoinbase},
		{name: "two coinbases", block: makeBlock(coinbase, coinbaseTx(2, 1)),
			expectedError: ErrMultipleCoinbases},
		{name: "bad merkle root", block: badMerkleRoot, expectedError: ErrBadMerkleRoot},
		{name: "negative output", block: makeBlock(coinbase, negativeOutput), expectedError: ErrBadTxOutValue},
		{name: "duplicate inputs", block: makeBlock(coinbase, duplicateInputs), expectedError: ErrDuplicateTxInputs},
	}
	for _, test := range tests {
		err := engine.CheckBlockSanity(test.block)
		if test.expectedError == nil {
			if err != nil {
				t.Fatalf("%s: CheckBlockSanity unexpectedly failed: %s", test.name, err)
			}
			continue
		}
		if !errors.Is(err, test.expectedError) {
			t.Fatalf("%s: expected error %s, got %v", test.name, test.expectedError, err)
		}
	}
}

func TestConnectBlock(t *testing.T) {
	params := &chainparams.RegressionNetParams
	engine := New(params)
	coins := mapCoinSet{}

	coinbase1 := coinbaseTx(1, 50*btcutil.SatoshiPerBitcoin)
	err := engine.ConnectBlock(coins, makeBlock(coinbase1), 1)
	if err != nil {
		t.Fatalf("ConnectBlock unexpectedly failed: %s", err)
	}
	coinbase1Outpoint := wire.NewOutPoint(txHash(coinbase1), 0)
	entry, found, _ := coins.Get(coinbase1Outpoint)
	if !found {
		t.Fatalf("coinbase output wasn't added")
	}
	if !entry.IsCoinbase() || entry.BlockHeight() != 1 {
		t.Fatalf("unexpected coinbase entry %s", entry)
	}

	// Spending the coinbase before it matures must fail.
	immatureHeight := int32(params.CoinbaseMaturity)
	immature := makeBlock(coinbaseTx(immatureHeight, 1), spendTx(coinbase1Outpoint, 1))
	err = engine.ConnectBlock(mapCoinSet{*coinbase1Outpoint: entry}, immature, immatureHeight)
	if !errors.Is(err, ErrImmatureSpend) {
		t.Fatalf("expected ErrImmatureSpend, got %v", err)
	}

	matureHeight := immatureHeight + 1
	spend := spendTx(coinbase1Outpoint, 49*btcutil.SatoshiPerBitcoin)
	subsidy := blockchain.CalcBlockSubsidy(matureHeight, params.Params)

	// The coinbase may claim the subsidy plus the spend's fee, no more.
	greedy := makeBlock(coinbaseTx(matureHeight, subsidy+btcutil.SatoshiPerBitcoin+1), spend)
	err = engine.ConnectBlock(mapCoinSet{*coinbase1Outpoint: entry}, greedy, matureHeight)
	if !errors.Is(err, ErrBadCoinbaseValue) {
		t.Fatalf("expected ErrBadCoinbaseValue, got %v", err)
	}

	valid := makeBlock(coinbaseTx(matureHeight, subsidy+btcutil.SatoshiPerBitcoin), spend)
	err = engine.ConnectBlock(coins, valid, matureHeight)
	if err != nil {
		t.Fatalf("ConnectBlock unexpectedly failed: %s", err)
	}
	if _, found, _ := coins.Get(coinbase1Outpoint); found {
		t.Fatalf("spent coin is still in the set")
	}
	if len(coins) != 2 {
		t.Fatalf("expected 2 coins, got %d", len(coins))
	}

	// Spending it again must fail with a missing outpoint.
	again := makeBlock(coinbaseTx(matureHeight+1, 1), spendTx(coinbase1Outpoint, 1))
	err = engine.ConnectBlock(coins, again, matureHeight+1)
	var ruleErr RuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected a RuleError, got %v", err)
	}
	var missingErr ErrMissingTxOut
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected ErrMissingTxOut, got %v", err)
	}
	if len(missingErr.MissingOutpoints) != 1 || *missingErr.MissingOutpoints[0] != *coinbase1Outpoint {
		t.Fatalf("unexpected missing outpoints %v", missingErr.MissingOutpoints)
	}
}

func TestConnectBlockSpendTooHigh(t *testing.T) {
	engine := New(&chainparams.RegressionNetParams)
	outpoint := wire.NewOutPoint(&chainhash.Hash{7}, 3)
	coins := mapCoinSet{*outpoint: utxo.NewEntry(1000, opTrueScript, false, 1)}

	block := makeBlock(coinbaseTx(2, 1), spendTx(outpoint, 1001))
	err := engine.ConnectBlock(coins, block, 2)
	if !errors.Is(err, ErrSpendTooHigh) {
		t.Fatalf("expected ErrSpendTooHigh, got %v", err)
	}
}

func TestConnectBlockSkipsUnspendable(t *testing.T) {
	engine := New(&chainparams.RegressionNetParams)
	coins := mapCoinSet{}

	coinbase := coinbaseTx(1, 1)
	coinbase.AddTxOut(wire.NewTxOut(0, []byte{txscript.OP_RETURN, 0x01, 0x02}))
	err := engine.ConnectBlock(coins, makeBlock(coinbase), 1)
	if err != nil {
		t.Fatalf("ConnectBlock unexpectedly failed: %s", err)
	}
	if len(coins) != 1 {
		t.Fatalf("expected only the spendable output to be added, got %d coins", len(coins))
	}
}

func txHash(tx *wire.MsgTx) *chainhash.Hash {
	hash := tx.TxHash()
	return &hash
}
