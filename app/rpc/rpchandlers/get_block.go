package rpchandlers

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
)

// HandleGetBlock handles the respectively named RPC command
func HandleGetBlock(context *rpccontext.Context, request appmessage.Message) (appmessage.Message, error) {
	getBlockRequest := request.(*appmessage.GetBlockRequestMessage)

	hash, err := chainhash.NewHashFromStr(getBlockRequest.Hash)
	if err != nil {
		errorMessage := appmessage.NewGetBlockResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("Hash could not be parsed: %s", err)
		return errorMessage, nil
	}
	blockIndex := context.Domain.BlockIndex()
	node, ok := blockIndex.LookupNode(hash)
	if !ok {
		errorMessage := appmessage.NewGetBlockResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("Block %s not found", hash)
		return errorMessage, nil
	}
	if !node.HasData {
		errorMessage := appmessage.NewGetBlockResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("Block %s not available (only the header is known)", hash)
		return errorMessage, nil
	}

	block, err := blockIndex.Block(hash)
	if err != nil {
		return nil, err
	}
	blockHex, err := appmessage.MsgBlockToHex(block)
	if err != nil {
		return nil, err
	}

	response := appmessage.NewGetBlockResponseMessage()
	response.BlockHex = blockHex
	response.Height = node.Height
	role, tip := context.Domain.ChainstateManager().ChainstateTipForHeight(node.Height)
	response.Chainstate = string(role)
	response.Confirmations = -1
	if node.Height <= tip.Height {
		response.Confirmations = tip.Height - node.Height + 1
	}
	return response, nil
}
