package rpcclient

import "github.com/kaspanet/chainstated/app/appmessage"

// GetBlock sends an RPC request respective to the function's name and returns the RPC server's response
func (c *RPCClient) GetBlock(hash string) (*appmessage.GetBlockResponseMessage, error) {
	response := appmessage.NewGetBlockResponseMessage()
	err := c.call("GetBlock", appmessage.NewGetBlockRequestMessage(hash), response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
