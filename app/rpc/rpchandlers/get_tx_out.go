package rpchandlers

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
)

// HandleGetTxOut handles the respectively named RPC command
func HandleGetTxOut(context *rpccontext.Context, request appmessage.Message) (appmessage.Message, error) {
	getTxOutRequest := request.(*appmessage.GetTxOutRequestMessage)

	txID, err := chainhash.NewHashFromStr(getTxOutRequest.TxID)
	if err != nil {
		errorMessage := appmessage.NewGetTxOutResponseMessage(nil)
		errorMessage.Error = appmessage.RPCErrorf("TxID could not be parsed: %s", err)
		return errorMessage, nil
	}
	outpoint := wire.NewOutPoint(txID, getTxOutRequest.Index)
	manager := context.Domain.ChainstateManager()
	tip := manager.ActiveTip()

	if getTxOutRequest.IncludeMempool {
		mempool := context.Domain.Mempool()
		if mempool.IsSpent(outpoint) {
			return appmessage.NewGetTxOutResponseMessage(nil), nil
		}
		txDesc, ok := mempool.FetchTransaction(txID)
		if ok {
			if int(outpoint.Index) >= len(txDesc.Tx.TxOut) {
				return appmessage.NewGetTxOutResponseMessage(nil), nil
			}
			txOut := txDesc.Tx.TxOut[outpoint.Index]
			return appmessage.NewGetTxOutResponseMessage(&appmessage.TxOut{
				BestBlock:       tip.Hash.String(),
				Confirmations:   0,
				Value:           txOut.Value,
				ScriptPubKeyHex: hex.EncodeToString(txOut.PkScript),
			}), nil
		}
	}

	entry, found, err := manager.GetCoin(outpoint)
	if err != nil {
		return nil, err
	}
	if !found {
		return appmessage.NewGetTxOutResponseMessage(nil), nil
	}
	return appmessage.NewGetTxOutResponseMessage(&appmessage.TxOut{
		BestBlock:       tip.Hash.String(),
		Confirmations:   tip.Height - int32(entry.BlockHeight()) + 1,
		Value:           int64(entry.Amount()),
		ScriptPubKeyHex: hex.EncodeToString(entry.PkScript()),
		Coinbase:        entry.IsCoinbase(),
	}), nil
}
