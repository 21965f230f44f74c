package rpcclient

import "github.com/kaspanet/chainstated/app/appmessage"

// GetTxOut sends an RPC request respective to the function's name and returns the RPC server's response.
// The response's TxOut is nil when no such unspent output exists.
func (c *RPCClient) GetTxOut(txID string, index uint32, includeMempool bool) (
	*appmessage.GetTxOutResponseMessage, error) {

	response := appmessage.NewGetTxOutResponseMessage(nil)
	err := c.call("GetTxOut", appmessage.NewGetTxOutRequestMessage(txID, index, includeMempool), response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
