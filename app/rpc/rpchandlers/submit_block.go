package rpchandlers

import (
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
)

// HandleSubmitBlock handles the respectively named RPC command
func HandleSubmitBlock(context *rpccontext.Context, request appmessage.Message) (appmessage.Message, error) {
	submitBlockRequest := request.(*appmessage.SubmitBlockRequestMessage)

	block, err := appmessage.HexToMsgBlock(submitBlockRequest.BlockHex)
	if err != nil {
		errorMessage := appmessage.NewSubmitBlockResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("Block decode failed: %s", err)
		return errorMessage, nil
	}

	err = context.Domain.ChainstateManager().ProcessBlock(block)
	if err != nil {
		errorMessage := appmessage.NewSubmitBlockResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("Block rejected. Reason: %s", err)
		return errorMessage, nil
	}

	log.Infof("Accepted block %s via submitBlock", block.BlockHash())
	return appmessage.NewSubmitBlockResponseMessage(), nil
}
