package rpcclient

import "github.com/kaspanet/chainstated/app/appmessage"

// GetChainStates sends an RPC request respective to the function's name and returns the RPC server's response
func (c *RPCClient) GetChainStates() (*appmessage.GetChainStatesResponseMessage, error) {
	response := &appmessage.GetChainStatesResponseMessage{}
	err := c.call("GetChainStates", appmessage.NewGetChainStatesRequestMessage(), response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
