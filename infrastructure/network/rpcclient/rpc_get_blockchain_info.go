package rpcclient

import "github.com/kaspanet/chainstated/app/appmessage"

// GetBlockchainInfo sends an RPC request respective to the function's name and returns the RPC server's response
func (c *RPCClient) GetBlockchainInfo() (*appmessage.GetBlockchainInfoResponseMessage, error) {
	response := appmessage.NewGetBlockchainInfoResponseMessage()
	err := c.call("GetBlockchainInfo", appmessage.NewGetBlockchainInfoRequestMessage(), response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
