package rpccontext

import (
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/domain/chainstate"
)

// ChainStateInfoToAppMessage converts a chainstate description to its
// RPC representation.
func ChainStateInfoToAppMessage(info *chainstate.Info) *appmessage.ChainState {
	chainState := &appmessage.ChainState{
		Role:          string(info.Role),
		Blocks:        info.Blocks,
		BestBlockHash: info.BestBlockHash.String(),
		Validated:     info.Validated,
		Coins:         info.Coins,
	}
	if info.SnapshotBlockHash != nil {
		chainState.SnapshotBlockHash = info.SnapshotBlockHash.String()
	}
	return chainState
}
