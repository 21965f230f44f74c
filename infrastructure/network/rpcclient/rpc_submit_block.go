package rpcclient

import "github.com/kaspanet/chainstated/app/appmessage"

// SubmitBlock sends an RPC request respective to the function's name and returns the RPC server's response
func (c *RPCClient) SubmitBlock(blockHex string) (*appmessage.SubmitBlockResponseMessage, error) {
	response := appmessage.NewSubmitBlockResponseMessage()
	err := c.call("SubmitBlock", appmessage.NewSubmitBlockRequestMessage(blockHex), response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
