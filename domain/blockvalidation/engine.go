package blockvalidation

import (
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

// CoinView gives read access to a set of coins.
type CoinView interface {
	Get(outpoint *wire.OutPoint) (*utxo.Entry, bool, error)
}

// CoinSet is a CoinView that blocks can be connected to.
type CoinSet interface {
	CoinView
	Insert(outpoint *wire.OutPoint, entry *utxo.Entry) error
	Spend(outpoint *wire.OutPoint) (*utxo.Entry, error)
}

// Engine applies the structural and UTXO rules this node enforces. Proof of
// work and scripts are not verified.
type Engine struct {
	params *chainparams.Params
}

// New creates a new validation engine for the given network.
func New(params *chainparams.Params) *Engine {
	return &Engine{params: params}
}

// CheckBlockSanity performs the context free checks on block.
func (e *Engine) CheckBlockSanity(block *wire.MsgBlock) error {
	if len(block.Transactions) == 0 {
		return errors.Wrapf(ErrNoTransactions, "block %s does not contain "+
			"any transactions", block.BlockHash())
	}
	if !blockchain.IsCoinBaseTx(block.Transactions[0]) {
		return errors.Wrapf(ErrFirstTxNotCoinbase, "first transaction in "+
			"block %s is not a coinbase", block.BlockHash())
	}

	transactions := make([]*btcutil.Tx, len(block.Transactions))
	seenTxIDs := make(map[chainhash.Hash]struct{}, len(block.Transactions))
	for i, msgTx := range block.Transactions {
		if i > 0 && blockchain.IsCoinBaseTx(msgTx) {
			return errors.Wrapf(ErrMultipleCoinbases, "block %s contains "+
				"second coinbase at index %d", block.BlockHash(), i)
		}
		err := e.CheckTransactionSanity(msgTx)
		if err != nil {
			return err
		}
		tx := btcutil.NewTx(msgTx)
		if _, exists := seenTxIDs[*tx.Hash()]; exists {
			return errors.Wrapf(ErrDuplicateTx, "block %s contains duplicate "+
				"transaction %s", block.BlockHash(), tx.Hash())
		}
		seenTxIDs[*tx.Hash()] = struct{}{}
		transactions[i] = tx
	}

	merkleRoot := blockchain.CalcMerkleRoot(transactions, false)
	if block.Header.MerkleRoot != merkleRoot {
		return errors.Wrapf(ErrBadMerkleRoot, "block %s merkle root is invalid - block "+
			"header indicates %s, but calculated value is %s",
			block.BlockHash(), block.Header.MerkleRoot, merkleRoot)
	}
	return nil
}

// CheckTransactionSanity performs the context free checks on tx.
func (e *Engine) CheckTransactionSanity(tx *wire.MsgTx) error {
	if len(tx.TxIn) == 0 {
		return errors.Wrapf(ErrNoTxInputs, "transaction %s has no inputs", tx.TxHash())
	}
	if len(tx.TxOut) == 0 {
		return errors.Wrapf(ErrNoTxOutputs, "transaction %s has no outputs", tx.TxHash())
	}

	var totalOut int64
	for _, txOut := range tx.TxOut {
		if txOut.Value < 0 || txOut.Value > btcutil.MaxSatoshi {
			return errors.Wrapf(ErrBadTxOutValue, "transaction %s output value of %d "+
				"is out of range", tx.TxHash(), txOut.Value)
		}
		totalOut += txOut.Value
		if totalOut > btcutil.MaxSatoshi {
			return errors.Wrapf(ErrBadTxOutValue, "total value of all transaction "+
				"outputs of %s exceeds the max allowed value", tx.TxHash())
		}
	}

	if blockchain.IsCoinBaseTx(tx) {
		return nil
	}
	existingTxOut := make(map[wire.OutPoint]struct{}, len(tx.TxIn))
	for _, txIn := range tx.TxIn {
		if _, exists := existingTxOut[txIn.PreviousOutPoint]; exists {
			return errors.Wrapf(ErrDuplicateTxInputs, "transaction %s "+
				"contains duplicate inputs", tx.TxHash())
		}
		existingTxOut[txIn.PreviousOutPoint] = struct{}{}
	}
	return nil
}

// CheckTransactionInputs checks that every input of tx exists in view and
// is mature at spendHeight, and that tx doesn't spend more than its inputs.
// It returns the transaction fee.
func (e *Engine) CheckTransactionInputs(tx *wire.MsgTx, view CoinView, spendHeight int32) (int64, error) {
	var totalIn int64
	var missingOutpoints []*wire.OutPoint
	for _, txIn := range tx.TxIn {
		outpoint := txIn.PreviousOutPoint
		entry, found, err := view.Get(&outpoint)
		if err != nil {
			return 0, err
		}
		if !found {
			missingOutpoints = append(missingOutpoints, &outpoint)
			continue
		}
		if entry.IsCoinbase() {
			confirmations := int64(spendHeight) - int64(entry.BlockHeight())
			if confirmations < int64(e.params.CoinbaseMaturity) {
				return 0, errors.Wrapf(ErrImmatureSpend, "transaction %s tried to spend "+
					"coinbase output %s from height %d at height %d before the required "+
					"maturity of %d blocks", tx.TxHash(), outpoint, entry.BlockHeight(),
					spendHeight, e.params.CoinbaseMaturity)
			}
		}
		totalIn += int64(entry.Amount())
	}
	if len(missingOutpoints) > 0 {
		return 0, NewErrMissingTxOut(missingOutpoints)
	}

	var totalOut int64
	for _, txOut := range tx.TxOut {
		totalOut += txOut.Value
	}
	if totalIn < totalOut {
		return 0, errors.Wrapf(ErrSpendTooHigh, "total value of all transaction "+
			"outputs for transaction %s is %d which is more than the inputs' %d",
			tx.TxHash(), totalOut, totalIn)
	}
	return totalIn - totalOut, nil
}

// ConnectBlock spends the inputs and adds the outputs of every transaction
// in block to coins. On error coins may hold a partial update, which the
// caller is expected to discard.
func (e *Engine) ConnectBlock(coins CoinSet, block *wire.MsgBlock, height int32) error {
	// The outputs of the genesis coinbase are not spendable.
	if height == 0 {
		return nil
	}

	var totalFees int64
	for i, tx := range block.Transactions {
		isCoinbase := i == 0
		if !isCoinbase {
			fee, err := e.CheckTransactionInputs(tx, coins, height)
			if err != nil {
				return err
			}
			totalFees += fee
			for _, txIn := range tx.TxIn {
				_, err := coins.Spend(&txIn.PreviousOutPoint)
				if err != nil {
					return err
				}
			}
		}

		txID := tx.TxHash()
		for index, txOut := range tx.TxOut {
			if txscript.IsUnspendable(txOut.PkScript) {
				continue
			}
			outpoint := wire.NewOutPoint(&txID, uint32(index))
			entry := utxo.NewEntry(uint64(txOut.Value), txOut.PkScript, isCoinbase, uint32(height))
			err := coins.Insert(outpoint, entry)
			if errors.Is(err, coinstore.ErrCoinExists) {
				return errors.Wrapf(ErrOverwriteTx, "transaction %s in block %s overwrites "+
					"the unspent output %s", txID, block.BlockHash(), outpoint)
			}
			if err != nil {
				return err
			}
		}
	}

	var coinbaseOut int64
	for _, txOut := range block.Transactions[0].TxOut {
		coinbaseOut += txOut.Value
	}
	maxCoinbaseOut := blockchain.CalcBlockSubsidy(height, e.params.Params) + totalFees
	if coinbaseOut > maxCoinbaseOut {
		return errors.Wrapf(ErrBadCoinbaseValue, "coinbase transaction of block %s pays %d "+
			"which is more than expected value of %d", block.BlockHash(), coinbaseOut, maxCoinbaseOut)
	}
	log.Tracef("Connected block %s at height %d", block.BlockHash(), height)
	return nil
}
