package rpchandlers

import (
	"encoding/hex"

	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
)

// maxBlocksPerGenerate bounds the work a single generate request causes.
const maxBlocksPerGenerate = 10_000

// HandleGenerate handles the respectively named RPC command
func HandleGenerate(context *rpccontext.Context, request appmessage.Message) (appmessage.Message, error) {
	generateRequest := request.(*appmessage.GenerateRequestMessage)

	if !context.Domain.Params().GenerateSupported {
		errorMessage := appmessage.NewGenerateResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("No support for generate on %s", context.Domain.Params().Name)
		return errorMessage, nil
	}
	if generateRequest.NumBlocks == 0 || generateRequest.NumBlocks > maxBlocksPerGenerate {
		errorMessage := appmessage.NewGenerateResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("The number of blocks must be between 1 and %d",
			maxBlocksPerGenerate)
		return errorMessage, nil
	}

	var payToScript []byte
	if generateRequest.PayToScriptHex != "" {
		var err error
		payToScript, err = hex.DecodeString(generateRequest.PayToScriptHex)
		if err != nil {
			errorMessage := appmessage.NewGenerateResponseMessage()
			errorMessage.Error = appmessage.RPCErrorf("Script could not be decoded: %s", err)
			return errorMessage, nil
		}
	}

	hashes, err := context.Domain.GenerateBlocks(int(generateRequest.NumBlocks), payToScript)
	if err != nil {
		errorMessage := appmessage.NewGenerateResponseMessage()
		errorMessage.Error = appmessage.RPCErrorf("Could not generate blocks: %s", err)
		return errorMessage, nil
	}

	response := appmessage.NewGenerateResponseMessage()
	response.BlockHashes = make([]string, len(hashes))
	for i, hash := range hashes {
		response.BlockHashes[i] = hash.String()
	}
	return response, nil
}
