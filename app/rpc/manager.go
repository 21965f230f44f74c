package rpc

import (
	"context"

	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
	"github.com/kaspanet/chainstated/domain"
	"github.com/kaspanet/chainstated/infrastructure/config"
	"github.com/kaspanet/chainstated/infrastructure/network/rpcservice"
)

// Manager is an RPC manager. It serves the node's RPC service by
// dispatching every request to its handler.
type Manager struct {
	context *rpccontext.Context
}

var _ rpcservice.Server = (*Manager)(nil)

// NewManager creates a new RPC Manager
func NewManager(cfg *config.Config, domain domain.Domain, shutDownChan chan<- struct{}) *Manager {
	return &Manager{
		context: rpccontext.NewContext(cfg, domain, shutDownChan),
	}
}

// DumpTxOutSet implements rpcservice.Server
func (m *Manager) DumpTxOutSet(_ context.Context, request *appmessage.DumpTxOutSetRequestMessage) (
	*appmessage.DumpTxOutSetResponseMessage, error) {

	return handleTyped[*appmessage.DumpTxOutSetResponseMessage](m, request)
}

// LoadTxOutSet implements rpcservice.Server
func (m *Manager) LoadTxOutSet(_ context.Context, request *appmessage.LoadTxOutSetRequestMessage) (
	*appmessage.LoadTxOutSetResponseMessage, error) {

	return handleTyped[*appmessage.LoadTxOutSetResponseMessage](m, request)
}

// GetChainStates implements rpcservice.Server
func (m *Manager) GetChainStates(_ context.Context, request *appmessage.GetChainStatesRequestMessage) (
	*appmessage.GetChainStatesResponseMessage, error) {

	return handleTyped[*appmessage.GetChainStatesResponseMessage](m, request)
}

// GetBlockchainInfo implements rpcservice.Server
func (m *Manager) GetBlockchainInfo(_ context.Context, request *appmessage.GetBlockchainInfoRequestMessage) (
	*appmessage.GetBlockchainInfoResponseMessage, error) {

	return handleTyped[*appmessage.GetBlockchainInfoResponseMessage](m, request)
}

// GetBlockHash implements rpcservice.Server
func (m *Manager) GetBlockHash(_ context.Context, request *appmessage.GetBlockHashRequestMessage) (
	*appmessage.GetBlockHashResponseMessage, error) {

	return handleTyped[*appmessage.GetBlockHashResponseMessage](m, request)
}

// GetBlock implements rpcservice.Server
func (m *Manager) GetBlock(_ context.Context, request *appmessage.GetBlockRequestMessage) (
	*appmessage.GetBlockResponseMessage, error) {

	return handleTyped[*appmessage.GetBlockResponseMessage](m, request)
}

// SubmitHeader implements rpcservice.Server
func (m *Manager) SubmitHeader(_ context.Context, request *appmessage.SubmitHeaderRequestMessage) (
	*appmessage.SubmitHeaderResponseMessage, error) {

	return handleTyped[*appmessage.SubmitHeaderResponseMessage](m, request)
}

// SubmitBlock implements rpcservice.Server
func (m *Manager) SubmitBlock(_ context.Context, request *appmessage.SubmitBlockRequestMessage) (
	*appmessage.SubmitBlockResponseMessage, error) {

	return handleTyped[*appmessage.SubmitBlockResponseMessage](m, request)
}

// GetTxOut implements rpcservice.Server
func (m *Manager) GetTxOut(_ context.Context, request *appmessage.GetTxOutRequestMessage) (
	*appmessage.GetTxOutResponseMessage, error) {

	return handleTyped[*appmessage.GetTxOutResponseMessage](m, request)
}

// SendRawTransaction implements rpcservice.Server
func (m *Manager) SendRawTransaction(_ context.Context, request *appmessage.SendRawTransactionRequestMessage) (
	*appmessage.SendRawTransactionResponseMessage, error) {

	return handleTyped[*appmessage.SendRawTransactionResponseMessage](m, request)
}

// GetRawMempool implements rpcservice.Server
func (m *Manager) GetRawMempool(_ context.Context, request *appmessage.GetRawMempoolRequestMessage) (
	*appmessage.GetRawMempoolResponseMessage, error) {

	return handleTyped[*appmessage.GetRawMempoolResponseMessage](m, request)
}

// Generate implements rpcservice.Server
func (m *Manager) Generate(_ context.Context, request *appmessage.GenerateRequestMessage) (
	*appmessage.GenerateResponseMessage, error) {

	return handleTyped[*appmessage.GenerateResponseMessage](m, request)
}

// Stop implements rpcservice.Server
func (m *Manager) Stop(_ context.Context, request *appmessage.StopRequestMessage) (
	*appmessage.StopResponseMessage, error) {

	return handleTyped[*appmessage.StopResponseMessage](m, request)
}
