package rpchandlers

import (
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
)

// HandleGetChainStates handles the respectively named RPC command
func HandleGetChainStates(context *rpccontext.Context, _ appmessage.Message) (appmessage.Message, error) {
	infos := context.Domain.ChainstateManager().Chainstates()
	chainStates := make([]*appmessage.ChainState, len(infos))
	for i, info := range infos {
		chainStates[i] = rpccontext.ChainStateInfoToAppMessage(info)
	}
	headers := context.Domain.BlockIndex().HeaderTip().Height
	return appmessage.NewGetChainStatesResponseMessage(headers, chainStates), nil
}
