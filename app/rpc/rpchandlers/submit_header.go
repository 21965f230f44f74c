package rpchandlers

import (
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
)

// HandleSubmitHeader handles the respectively named RPC command
func HandleSubmitHeader(context *rpccontext.Context, request appmessage.Message) (appmessage.Message, error) {
	submitHeaderRequest := request.(*appmessage.SubmitHeaderRequestMessage)

	header, err := appmessage.HexToBlockHeader(submitHeaderRequest.HeaderHex)
	if err != nil {
		errorMessage := appmessage.NewSubmitHeaderResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("Header decode failed: %s", err)
		return errorMessage, nil
	}

	node, err := context.Domain.ChainstateManager().ProcessHeader(header)
	if err != nil {
		errorMessage := appmessage.NewSubmitHeaderResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("Header rejected. Reason: %s", err)
		return errorMessage, nil
	}

	log.Debugf("Accepted header %s at height %d via submitHeader", node.Hash, node.Height)
	return appmessage.NewSubmitHeaderResponseMessage(), nil
}
