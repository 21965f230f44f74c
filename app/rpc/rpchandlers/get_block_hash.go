package rpchandlers

import (
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
)

// HandleGetBlockHash handles the respectively named RPC command
func HandleGetBlockHash(context *rpccontext.Context, request appmessage.Message) (appmessage.Message, error) {
	getBlockHashRequest := request.(*appmessage.GetBlockHashRequestMessage)

	node, ok := context.Domain.BlockIndex().NodeByHeight(getBlockHashRequest.Height)
	if !ok {
		errorMessage := appmessage.NewGetBlockHashResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("Block height out of range")
		return errorMessage, nil
	}

	response := appmessage.NewGetBlockHashResponseMessage()
	response.Hash = node.Hash.String()
	return response, nil
}
