package rpchandlers

import (
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
)

// HandleDumpTxOutSet handles the respectively named RPC command
func HandleDumpTxOutSet(context *rpccontext.Context, request appmessage.Message) (appmessage.Message, error) {
	dumpTxOutSetRequest := request.(*appmessage.DumpTxOutSetRequestMessage)
	if dumpTxOutSetRequest.Path == "" {
		errorMessage := appmessage.NewDumpTxOutSetResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("A path to write the snapshot to is required")
		return errorMessage, nil
	}

	result, err := context.Domain.ChainstateManager().DumpSnapshot(dumpTxOutSetRequest.Path)
	if err != nil {
		errorMessage := appmessage.NewDumpTxOutSetResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("%s", err)
		return errorMessage, nil
	}

	response := appmessage.NewDumpTxOutSetResponseMessage()
	response.CoinsWritten = result.CoinsWritten
	response.BaseHash = result.BaseHash.String()
	response.BaseHeight = result.BaseHeight
	response.Path = result.Path
	response.TxOutSetHash = result.ContentHash.String()
	response.NChainTx = result.ChainTxCount
	return response, nil
}
