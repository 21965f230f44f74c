package appmessage

// GetBlockHashRequestMessage is an appmessage corresponding to
// its respective RPC message
type GetBlockHashRequestMessage struct {
	Height int32 `cramberry:"1"`
}

// Command returns the protocol command string for the message
func (msg *GetBlockHashRequestMessage) Command() MessageCommand {
	return CmdGetBlockHashRequestMessage
}

// NewGetBlockHashRequestMessage returns a instance of the message
func NewGetBlockHashRequestMessage(height int32) *GetBlockHashRequestMessage {
	return &GetBlockHashRequestMessage{
		Height: height,
	}
}

// GetBlockHashResponseMessage is an appmessage corresponding to
// its respective RPC message
type GetBlockHashResponseMessage struct {
	Hash string `cramberry:"1"`

	Error *RPCError `cramberry:"2"`
}

// Command returns the protocol command string for the message
func (msg *GetBlockHashResponseMessage) Command() MessageCommand {
	return CmdGetBlockHashResponseMessage
}

// RPCError returns the error the response carries, if any
func (msg *GetBlockHashResponseMessage) RPCError() *RPCError {
	return msg.Error
}

// NewGetBlockHashResponseMessage returns a instance of the message
func NewGetBlockHashResponseMessage() *GetBlockHashResponseMessage {
	return &GetBlockHashResponseMessage{}
}
