package rpchandlers

import (
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
)

// HandleGetRawMempool handles the respectively named RPC command
func HandleGetRawMempool(context *rpccontext.Context, _ appmessage.Message) (appmessage.Message, error) {
	txIDs := context.Domain.Mempool().TxIDs()
	response := appmessage.NewGetRawMempoolResponseMessage()
	response.TxIDs = make([]string, len(txIDs))
	for i, txID := range txIDs {
		response.TxIDs[i] = txID.String()
	}
	return response, nil
}
