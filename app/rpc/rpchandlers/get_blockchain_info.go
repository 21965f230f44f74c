package rpchandlers

import (
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
)

// HandleGetBlockchainInfo handles the respectively named RPC command
func HandleGetBlockchainInfo(context *rpccontext.Context, _ appmessage.Message) (appmessage.Message, error) {
	manager := context.Domain.ChainstateManager()
	tip := manager.ActiveTip()

	response := appmessage.NewGetBlockchainInfoResponseMessage()
	response.Chain = context.Domain.Params().Name
	response.Blocks = tip.Height
	response.Headers = context.Domain.BlockIndex().HeaderTip().Height
	response.BestBlockHash = tip.Hash.String()
	response.MempoolSize = uint32(context.Domain.Mempool().Count())
	response.SnapshotState = manager.State().String()
	return response, nil
}
