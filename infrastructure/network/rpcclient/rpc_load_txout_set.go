package rpcclient

import "github.com/kaspanet/chainstated/app/appmessage"

// LoadTxOutSet sends an RPC request respective to the function's name and returns the RPC server's response
func (c *RPCClient) LoadTxOutSet(path string) (*appmessage.LoadTxOutSetResponseMessage, error) {
	response := appmessage.NewLoadTxOutSetResponseMessage()
	err := c.call("LoadTxOutSet", appmessage.NewLoadTxOutSetRequestMessage(path), response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
