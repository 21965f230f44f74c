package appmessage

// GetBlockRequestMessage is an appmessage corresponding to
// its respective RPC message
type GetBlockRequestMessage struct {
	Hash string `cramberry:"1"`
}

// Command returns the protocol command string for the message
func (msg *GetBlockRequestMessage) Command() MessageCommand {
	return CmdGetBlockRequestMessage
}

// NewGetBlockRequestMessage returns a instance of the message
func NewGetBlockRequestMessage(hash string) *GetBlockRequestMessage {
	return &GetBlockRequestMessage{
		Hash: hash,
	}
}

// GetBlockResponseMessage is an appmessage corresponding to
// its respective RPC message
type GetBlockResponseMessage struct {
	BlockHex      string `cramberry:"1"`
	Height        int32  `cramberry:"2"`
	Confirmations int32  `cramberry:"3"`
	Chainstate    string `cramberry:"5"`

	Error *RPCError `cramberry:"4"`
}

// Command returns the protocol command string for the message
func (msg *GetBlockResponseMessage) Command() MessageCommand {
	return CmdGetBlockResponseMessage
}

// RPCError returns the error the response carries, if any
func (msg *GetBlockResponseMessage) RPCError() *RPCError {
	return msg.Error
}

// NewGetBlockResponseMessage returns a instance of the message
func NewGetBlockResponseMessage() *GetBlockResponseMessage {
	return &GetBlockResponseMessage{}
}
