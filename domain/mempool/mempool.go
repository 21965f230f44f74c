package mempool

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/blockvalidation"
	"github.com/kaspanet/chainstated/domain/utxo"
	"github.com/pkg/errors"
)

// DefaultMaxTransactions is the default number of transactions the pool
// holds before it starts evicting.
const DefaultMaxTransactions = 5000

// CoinSource gives the mempool access to the coins of the active
// chainstate.
type CoinSource interface {
	GetCoin(outpoint *wire.OutPoint) (*utxo.Entry, bool, error)
	TipHeight() int32
}

// Config is a descriptor containing the memory pool configuration.
type Config struct {
	// MaxTransactions is the number of transactions after which the
	// transaction with the lowest fee is evicted.
	MaxTransactions int
}

// TxDesc is a descriptor containing a transaction in the mempool along with
// additional metadata.
type TxDesc struct {
	Tx     *wire.MsgTx
	TxID   chainhash.Hash
	Fee    int64
	Added  time.Time
	Height int32

	sequence uint64
}

// Mempool is the pool of transactions waiting to be mined on top of the
// active chainstate.
type Mempool struct {
	mtx    sync.RWMutex
	cfg    Config
	engine *blockvalidation.Engine
	source CoinSource

	pool         map[chainhash.Hash]*TxDesc
	outpoints    map[wire.OutPoint]*TxDesc
	nextSequence uint64
}

// New returns a new memory pool for validating and storing standalone
// transactions until they are mined into a block.
func New(cfg *Config, engine *blockvalidation.Engine, source CoinSource) *Mempool {
	if cfg.MaxTransactions <= 0 {
		cfg.MaxTransactions = DefaultMaxTransactions
	}
	return &Mempool{
		cfg:       *cfg,
		engine:    engine,
		source:    source,
		pool:      make(map[chainhash.Hash]*TxDesc),
		outpoints: make(map[wire.OutPoint]*TxDesc),
	}
}

// poolView resolves coins from the active chainstate and from the outputs
// of transactions in the pool. Coins spent by the pool are hidden.
type poolView struct {
	mp *Mempool
}

func (v poolView) Get(outpoint *wire.OutPoint) (*utxo.Entry, bool, error) {
	if _, spent := v.mp.outpoints[*outpoint]; spent {
		return nil, false, nil
	}
	if parent, ok := v.mp.pool[outpoint.Hash]; ok {
		if outpoint.Index >= uint32(len(parent.Tx.TxOut)) {
			return nil, false, nil
		}
		txOut := parent.Tx.TxOut[outpoint.Index]
		if txscript.IsUnspendable(txOut.PkScript) {
			return nil, false, nil
		}
		return utxo.NewEntry(uint64(txOut.Value), txOut.PkScript, false, uint32(parent.Height)), true, nil
	}
	return v.mp.source.GetCoin(outpoint)
}

// AcceptTransaction validates tx against the active chainstate and the
// transactions already in the pool, and adds it to the pool.
func (mp *Mempool) AcceptTransaction(tx *wire.MsgTx) (*TxDesc, error) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	txID := tx.TxHash()
	if _, exists := mp.pool[txID]; exists {
		return nil, txRuleError(RejectDuplicate, fmt.Sprintf("already have transaction %s", txID))
	}
	if blockchain.IsCoinBaseTx(tx) {
		return nil, txRuleError(RejectInvalid, fmt.Sprintf("transaction %s is an individual "+
			"coinbase", txID))
	}
	err := mp.engine.CheckTransactionSanity(tx)
	if err != nil {
		return nil, RuleError{Err: err}
	}
	for _, txIn := range tx.TxIn {
		if conflict, ok := mp.outpoints[txIn.PreviousOutPoint]; ok {
			return nil, txRuleError(RejectDuplicate, fmt.Sprintf("output %s already spent by "+
				"transaction %s in the memory pool", txIn.PreviousOutPoint, conflict.TxID))
		}
	}

	nextHeight := mp.source.TipHeight() + 1
	fee, err := mp.engine.CheckTransactionInputs(tx, poolView{mp: mp}, nextHeight)
	if err != nil {
		var ruleErr blockvalidation.RuleError
		if errors.As(err, &ruleErr) {
			return nil, RuleError{Err: err}
		}
		return nil, err
	}

	if len(mp.pool) >= mp.cfg.MaxTransactions {
		lowest := mp.lowestFeeTransaction()
		if lowest.Fee >= fee {
			return nil, txRuleError(RejectInsufficientFee, fmt.Sprintf("mempool is full "+
				"and transaction %s pays %d which is not more than the lowest fee %d",
				txID, fee, lowest.Fee))
		}
		evicted := mp.withRedeemers(lowest)
		for _, txIn := range tx.TxIn {
			if _, ok := evicted[txIn.PreviousOutPoint.Hash]; ok {
				return nil, txRuleError(RejectInsufficientFee, fmt.Sprintf("mempool is full "+
					"and transaction %s depends on the lowest fee transaction %s",
					txID, lowest.TxID))
			}
		}
		log.Debugf("Evicting transaction %s from the full mempool", lowest.TxID)
		mp.removeTransaction(&lowest.TxID, true)
	}

	txDesc := &TxDesc{
		Tx:       tx,
		TxID:     txID,
		Fee:      fee,
		Added:    time.Now(),
		Height:   nextHeight,
		sequence: mp.nextSequence,
	}
	mp.nextSequence++
	mp.pool[txID] = txDesc
	for _, txIn := range tx.TxIn {
		mp.outpoints[txIn.PreviousOutPoint] = txDesc
	}
	log.Debugf("Accepted transaction %s (pool size: %d)", txID, len(mp.pool))
	return txDesc, nil
}

func (mp *Mempool) lowestFeeTransaction() *TxDesc {
	var lowest *TxDesc
	for _, txDesc := range mp.pool {
		if lowest == nil || txDesc.Fee < lowest.Fee ||
			(txDesc.Fee == lowest.Fee && txDesc.sequence > lowest.sequence) {
			lowest = txDesc
		}
	}
	return lowest
}

// withRedeemers returns the IDs of txDesc and of all of its in-pool
// descendants.
func (mp *Mempool) withRedeemers(txDesc *TxDesc) map[chainhash.Hash]struct{} {
	result := make(map[chainhash.Hash]struct{})
	queue := []*TxDesc{txDesc}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, ok := result[current.TxID]; ok {
			continue
		}
		result[current.TxID] = struct{}{}
		for index := range current.Tx.TxOut {
			outpoint := wire.OutPoint{Hash: current.TxID, Index: uint32(index)}
			if redeemer, ok := mp.outpoints[outpoint]; ok {
				queue = append(queue, redeemer)
			}
		}
	}
	return result
}

// removeTransaction removes the transaction and, if removeRedeemers is
// set, every pool transaction spending its outputs. Must be called with
// the lock held.
func (mp *Mempool) removeTransaction(txID *chainhash.Hash, removeRedeemers bool) {
	txDesc, ok := mp.pool[*txID]
	if !ok {
		return
	}
	if removeRedeemers {
		for index := range txDesc.Tx.TxOut {
			outpoint := wire.OutPoint{Hash: *txID, Index: uint32(index)}
			if redeemer, ok := mp.outpoints[outpoint]; ok {
				mp.removeTransaction(&redeemer.TxID, true)
			}
		}
	}
	for _, txIn := range txDesc.Tx.TxIn {
		delete(mp.outpoints, txIn.PreviousOutPoint)
	}
	delete(mp.pool, *txID)
}

// RemoveTransaction removes the transaction with the given ID and its
// in-pool descendants.
func (mp *Mempool) RemoveTransaction(txID *chainhash.Hash) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	mp.removeTransaction(txID, true)
}

// HandleBlockConnected removes the transactions of block from the pool,
// together with every pool transaction that conflicts with them.
func (mp *Mempool) HandleBlockConnected(block *wire.MsgBlock) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	for _, tx := range block.Transactions[1:] {
		txID := tx.TxHash()
		// A mined transaction's children stay valid.
		mp.removeTransaction(&txID, false)
		for _, txIn := range tx.TxIn {
			if conflict, ok := mp.outpoints[txIn.PreviousOutPoint]; ok {
				log.Debugf("Removing transaction %s which conflicts with mined transaction %s",
					conflict.TxID, txID)
				mp.removeTransaction(&conflict.TxID, true)
			}
		}
	}
}

// Clear removes every transaction from the pool.
func (mp *Mempool) Clear() {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	mp.pool = make(map[chainhash.Hash]*TxDesc)
	mp.outpoints = make(map[wire.OutPoint]*TxDesc)
}

// Count returns the number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	return len(mp.pool)
}

// HaveTransaction returns whether the transaction is in the pool.
func (mp *Mempool) HaveTransaction(txID *chainhash.Hash) bool {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	_, ok := mp.pool[*txID]
	return ok
}

// FetchTransaction returns the descriptor of the pool's transaction with
// the given ID.
func (mp *Mempool) FetchTransaction(txID *chainhash.Hash) (*TxDesc, bool) {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	txDesc, ok := mp.pool[*txID]
	return txDesc, ok
}

// IsSpent returns whether a transaction in the pool spends outpoint.
func (mp *Mempool) IsSpent(outpoint *wire.OutPoint) bool {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	_, ok := mp.outpoints[*outpoint]
	return ok
}

// TxDescs returns the descriptors of the pool's transactions in the order
// they were accepted, so that parents come before their children.
func (mp *Mempool) TxDescs() []*TxDesc {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	descs := make([]*TxDesc, 0, len(mp.pool))
	for _, txDesc := range mp.pool {
		descs = append(descs, txDesc)
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].sequence < descs[j].sequence })
	return descs
}

// TxIDs returns the IDs of the pool's transactions in the order they were
// accepted.
func (mp *Mempool) TxIDs() []*chainhash.Hash {
	descs := mp.TxDescs()
	txIDs := make([]*chainhash.Hash, len(descs))
	for i, txDesc := range descs {
		txID := txDesc.TxID
		txIDs[i] = &txID
	}
	return txIDs
}
