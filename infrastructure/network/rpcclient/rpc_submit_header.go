package rpcclient

import "github.com/kaspanet/chainstated/app/appmessage"

// SubmitHeader sends an RPC request respective to the function's name and returns the RPC server's response
func (c *RPCClient) SubmitHeader(headerHex string) (*appmessage.SubmitHeaderResponseMessage, error) {
	response := appmessage.NewSubmitHeaderResponseMessage()
	err := c.call("SubmitHeader", appmessage.NewSubmitHeaderRequestMessage(headerHex), response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
