package rpcclient

import "github.com/kaspanet/chainstated/app/appmessage"

// GetBlockHash sends an RPC request respective to the function's name and returns the RPC server's response
func (c *RPCClient) GetBlockHash(height int32) (*appmessage.GetBlockHashResponseMessage, error) {
	response := appmessage.NewGetBlockHashResponseMessage()
	err := c.call("GetBlockHash", appmessage.NewGetBlockHashRequestMessage(height), response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
