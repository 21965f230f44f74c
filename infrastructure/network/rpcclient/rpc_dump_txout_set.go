package rpcclient

import "github.com/kaspanet/chainstated/app/appmessage"

// DumpTxOutSet sends an RPC request respective to the function's name and returns the RPC server's response
func (c *RPCClient) DumpTxOutSet(path string) (*appmessage.DumpTxOutSetResponseMessage, error) {
	response := appmessage.NewDumpTxOutSetResponseMessage()
	err := c.call("DumpTxOutSet", appmessage.NewDumpTxOutSetRequestMessage(path), response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
