package rpcclient

import "github.com/kaspanet/chainstated/app/appmessage"

// GetRawMempool sends an RPC request respective to the function's name and returns the RPC server's response
func (c *RPCClient) GetRawMempool() (*appmessage.GetRawMempoolResponseMessage, error) {
	response := appmessage.NewGetRawMempoolResponseMessage()
	err := c.call("GetRawMempool", appmessage.NewGetRawMempoolRequestMessage(), response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
