package rpcclient

import "github.com/kaspanet/chainstated/app/appmessage"

// Generate sends an RPC request respective to the function's name and returns the RPC server's response
func (c *RPCClient) Generate(numBlocks uint32, payToScriptHex string) (*appmessage.GenerateResponseMessage, error) {
	response := appmessage.NewGenerateResponseMessage()
	err := c.call("Generate", appmessage.NewGenerateRequestMessage(numBlocks, payToScriptHex), response)
	if err != nil {
		return nil, err
	}
	return response, nil
}
