package appmessage

// GenerateRequestMessage is an appmessage corresponding to
// its respective RPC message
type GenerateRequestMessage struct {
	NumBlocks      uint32 `cramberry:"1"`
	PayToScriptHex string `cramberry:"2"`
}

// Command returns the protocol command string for the message
func (msg *GenerateRequestMessage) Command() MessageCommand {
	return CmdGenerateRequestMessage
}

// NewGenerateRequestMessage returns a instance of the message
func NewGenerateRequestMessage(numBlocks uint32, payToScriptHex string) *GenerateRequestMessage {
	return &GenerateRequestMessage{
		NumBlocks:      numBlocks,
		PayToScriptHex: payToScriptHex,
	}
}

// GenerateResponseMessage is an appmessage corresponding to
// its respective RPC message
type GenerateResponseMessage struct {
	BlockHashes []string `cramberry:"1"`

	Error *RPCError `cramberry:"2"`
}

// Command returns the protocol command string for the message
func (msg *GenerateResponseMessage) Command() MessageCommand {
	return CmdGenerateResponseMessage
}

// RPCError returns the error the response carries, if any
func (msg *GenerateResponseMessage) RPCError() *RPCError {
	return msg.Error
}

// NewGenerateResponseMessage returns a instance of the message
func NewGenerateResponseMessage() *GenerateResponseMessage {
	return &GenerateResponseMessage{}
}
