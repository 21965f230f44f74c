package rpcclient

import "github.com/kaspanet/chainstated/app/appmessage"

// SendRawTransaction sends an RPC request respective to the function's name and returns the RPC server's response
func (c *RPCClient) SendRawTransaction(transactionHex string) (*appmessage.SendRawTransactionResponseMessage, error) {
	response := appmessage.NewSendRawTransactionResponseMessage()
	err := c.call("SendRawTransaction", appmessage.NewSendRawTransactionRequestMessage(transactionHex), response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
