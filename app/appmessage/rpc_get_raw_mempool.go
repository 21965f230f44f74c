package appmessage

// GetRawMempoolRequestMessage is an appmessage corresponding to
// its respective RPC message
type GetRawMempoolRequestMessage struct{}

// Command returns the protocol command string for the message
func (msg *GetRawMempoolRequestMessage) Command() MessageCommand {
	return CmdGetRawMempoolRequestMessage
}

// NewGetRawMempoolRequestMessage returns a instance of the message
func NewGetRawMempoolRequestMessage() *GetRawMempoolRequestMessage {
	return &GetRawMempoolRequestMessage{}
}

// GetRawMempoolResponseMessage is an appmessage corresponding to
// its respective RPC message
type GetRawMempoolResponseMessage struct {
	TxIDs []string `cramberry:"1"`

	Error *RPCError `cramberry:"2"`
}

// Command returns the protocol command string for the message
func (msg *GetRawMempoolResponseMessage) Command() MessageCommand {
	return CmdGetRawMempoolResponseMessage
}

// RPCError returns the error the response carries, if any
func (msg *GetRawMempoolResponseMessage) RPCError() *RPCError {
	return msg.Error
}

// NewGetRawMempoolResponseMessage returns a instance of the message
func NewGetRawMempoolResponseMessage() *GetRawMempoolResponseMessage {
	return &GetRawMempoolResponseMessage{}
}
