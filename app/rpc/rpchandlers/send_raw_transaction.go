package rpchandlers

import (
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
	"github.com/kaspanet/chainstated/domain/mempool"
	"github.com/pkg/errors"
)

// HandleSendRawTransaction handles the respectively named RPC command
func HandleSendRawTransaction(context *rpccontext.Context, request appmessage.Message) (appmessage.Message, error) {
	sendRawTransactionRequest := request.(*appmessage.SendRawTransactionRequestMessage)

	tx, err := appmessage.HexToMsgTx(sendRawTransactionRequest.TransactionHex)
	if err != nil {
		errorMessage := appmessage.NewSendRawTransactionResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("TX decode failed: %s", err)
		return errorMessage, nil
	}

	txDesc, err := context.Domain.Mempool().AcceptTransaction(tx)
	if err != nil {
		var ruleErr mempool.RuleError
		if !errors.As(err, &ruleErr) {
			return nil, err
		}
		errorMessage := appmessage.NewSendRawTransactionResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("Rejected transaction %s: %s", tx.TxHash(), err)
		return errorMessage, nil
	}

	log.Debugf("Accepted transaction %s via sendRawTransaction", txDesc.TxID)
	response := appmessage.NewSendRawTransactionResponseMessage()
	response.TxID = txDesc.TxID.String()
	return response, nil
}
