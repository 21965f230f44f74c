// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/chainparams"
	"github.com/kaspanet/chainstated/domain/mempool"
	"github.com/pkg/errors"
)

const (
	// CoinbaseFlags is added to the coinbase script of a generated block
	// and is used to identify blocks that are generated via chainstated.
	CoinbaseFlags = "/chainstated/"
)

// OpTrueScript is the script generated blocks pay to when no other script
// is given. Anyone can spend its outputs.
var OpTrueScript = []byte{txscript.OP_TRUE}

// TxSource represents a source of transactions to consider for inclusion in
// new blocks.
//
// The interface contract requires that all of these methods are safe for
// concurrent access with respect to the source.
type TxSource interface {
	// TxDescs returns the descriptors of the transactions in the source
	// pool, parents before children.
	TxDescs() []*mempool.TxDesc
}

// BlockTemplate houses a block that has yet to be solved along with
// additional details about the fees of each transaction in the block.
type BlockTemplate struct {
	// Block is a block that is ready to be solved by miners. Thus, it is
	// completely valid with the exception of satisfying the proof-of-work
	// requirement.
	Block *wire.MsgBlock

	// Fees contains the amount of fees each transaction in the generated
	// template pays. Since the first transaction is the coinbase, the first
	// entry (offset 0) will contain the negative of the sum of the fees of
	// all other transactions.
	Fees []int64

	// Height is the height at which the block template connects to the
	// chain.
	Height int32
}

// BlkTmplGenerator provides a type that can be used to generate block
// templates based on a given mining policy and source of transactions to
// choose from.
type BlkTmplGenerator struct {
	params   *chainparams.Params
	txSource TxSource
}

// NewBlkTmplGenerator returns a new block template generator for the given
// network and transaction source.
func NewBlkTmplGenerator(params *chainparams.Params, txSource TxSource) *BlkTmplGenerator {
	return &BlkTmplGenerator{
		params:   params,
		txSource: txSource,
	}
}

// StandardCoinbaseScript returns a standard script suitable for use as the
// signature script of the coinbase transaction of a new block. The height
// is pushed first as required by BIP34.
func StandardCoinbaseScript(height int32, extraNonce uint64) ([]byte, error) {
	script, err := txscript.NewScriptBuilder().
		AddInt64(int64(height)).
		AddInt64(int64(extraNonce)).
		AddData([]byte(CoinbaseFlags)).
		Script()
	return script, errors.WithStack(err)
}

// CreateCoinbaseTx returns a coinbase transaction paying value to
// payToScript.
func CreateCoinbaseTx(coinbaseScript []byte, payToScript []byte, value int64) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		// Coinbase transactions have no inputs, so previous outpoint is
		// zero hash and max index.
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex),
		SignatureScript:  coinbaseScript,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(value, payToScript))
	return tx
}

// NewBlockTemplate returns a block extending parent, which is at height
// parentHeight, with all the transactions of the source and a coinbase
// paying the subsidy and the fees to payToScript.
//
// Generated blocks are deterministic: the timestamp is one second after
// the parent's, the difficulty is the network's minimum and the nonce is
// zero. Two nodes generating on top of the same chain produce the same
// blocks.
func (g *BlkTmplGenerator) NewBlockTemplate(parent *wire.BlockHeader, parentHeight int32,
	payToScript []byte) (*BlockTemplate, error) {

	if payToScript == nil {
		payToScript = OpTrueScript
	}
	height := parentHeight + 1

	var txDescs []*mempool.TxDesc
	if g.txSource != nil {
		txDescs = g.txSource.TxDescs()
	}
	fees := make([]int64, 1, len(txDescs)+1)
	transactions := make([]*wire.MsgTx, 1, len(txDescs)+1)
	var totalFees int64
	for _, txDesc := range txDescs {
		transactions = append(transactions, txDesc.Tx)
		fees = append(fees, txDesc.Fee)
		totalFees += txDesc.Fee
	}
	fees[0] = -totalFees

	coinbaseScript, err := StandardCoinbaseScript(height, 0)
	if err != nil {
		return nil, err
	}
	subsidy := blockchain.CalcBlockSubsidy(height, g.params.Params)
	transactions[0] = CreateCoinbaseTx(coinbaseScript, payToScript, subsidy+totalFees)

	utilTxs := make([]*btcutil.Tx, len(transactions))
	for i, tx := range transactions {
		utilTxs[i] = btcutil.NewTx(tx)
	}
	block := &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:    4,
			PrevBlock:  parent.BlockHash(),
			MerkleRoot: blockchain.CalcMerkleRoot(utilTxs, false),
			Timestamp:  parent.Timestamp.Add(time.Second),
			Bits:       g.params.PowLimitBits,
		},
		Transactions: transactions,
	}
	log.Debugf("Created block template at height %d with %d transactions", height, len(transactions))
	return &BlockTemplate{
		Block:  block,
		Fees:   fees,
		Height: height,
	}, nil
}
