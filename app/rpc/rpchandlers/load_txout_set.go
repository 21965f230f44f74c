package rpchandlers

import (
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
)

// HandleLoadTxOutSet handles the respectively named RPC command
func HandleLoadTxOutSet(context *rpccontext.Context, request appmessage.Message) (appmessage.Message, error) {
	loadTxOutSetRequest := request.(*appmessage.LoadTxOutSetRequestMessage)

	result, err := context.Domain.ChainstateManager().LoadSnapshot(loadTxOutSetRequest.Path)
	if err != nil {
		errorMessage := appmessage.NewLoadTxOutSetResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("%s", err)
		return errorMessage, nil
	}

	log.Infof("Loaded %d coins from the snapshot %s via loadTxOutSet", result.CoinsLoaded, result.Path)
	response := appmessage.NewLoadTxOutSetResponseMessage()
	response.CoinsLoaded = result.CoinsLoaded
	response.BaseHash = result.BaseHash.String()
	response.BaseHeight = result.BaseHeight
	response.Path = result.Path
	return response, nil
}
