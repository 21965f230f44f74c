package rpcclient

import "github.com/kaspanet/chainstated/app/appmessage"

// Stop sends an RPC request respective to the function's name and returns the RPC server's response
func (c *RPCClient) Stop() (*appmessage.StopResponseMessage, error) {
	response := appmessage.NewStopResponseMessage()
	err := c.call("Stop", appmessage.NewStopRequestMessage(), response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
