package rpc

import (
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
	"github.com/kaspanet/chainstated/app/rpc/rpchandlers"
	"github.com/pkg/errors"
)

type handler func(context *rpccontext.Context, request appmessage.Message) (appmessage.Message, error)

var handlers = map[appmessage.MessageCommand]handler{
	appmessage.CmdDumpTxOutSetRequestMessage:       rpchandlers.HandleDumpTxOutSet,
	appmessage.CmdLoadTxOutSetRequestMessage:       rpchandlers.HandleLoadTxOutSet,
	appmessage.CmdGetChainStatesRequestMessage:     rpchandlers.HandleGetChainStates,
	appmessage.CmdGetBlockchainInfoRequestMessage:  rpchandlers.HandleGetBlockchainInfo,
	appmessage.CmdGetBlockHashRequestMessage:       rpchandlers.HandleGetBlockHash,
	appmessage.CmdGetBlockRequestMessage:           rpchandlers.HandleGetBlock,
	appmessage.CmdSubmitHeaderRequestMessage:       rpchandlers.HandleSubmitHeader,
	appmessage.CmdSubmitBlockRequestMessage:        rpchandlers.HandleSubmitBlock,
	appmessage.CmdGetTxOutRequestMessage:           rpchandlers.HandleGetTxOut,
	appmessage.CmdSendRawTransactionRequestMessage: rpchandlers.HandleSendRawTransaction,
	appmessage.CmdGetRawMempoolRequestMessage:      rpchandlers.HandleGetRawMempool,
	appmessage.CmdGenerateRequestMessage:           rpchandlers.HandleGenerate,
	appmessage.CmdStopRequestMessage:               rpchandlers.HandleStop,
}

func (m *Manager) handleRequest(request appmessage.Message) (appmessage.Message, error) {
	handler, ok := handlers[request.Command()]
	if !ok {
		return nil, errors.Errorf("no handler found for command %s", request.Command())
	}
	response, err := handler(m.context, request)
	if err != nil {
		log.Errorf("Error handling command %s: %+v", request.Command(), err)
		return nil, err
	}
	return response, nil
}

// handleTyped runs request through its handler and asserts the response
// to the type the service method returns.
func handleTyped[T appmessage.Message](m *Manager, request appmessage.Message) (T, error) {
	var zero T
	response, err := m.handleRequest(request)
	if err != nil {
		return zero, err
	}
	typedResponse, ok := response.(T)
	if !ok {
		return zero, errors.Errorf("unexpected response %s to command %s", response.Command(), request.Command())
	}
	return typedResponse, nil
}
