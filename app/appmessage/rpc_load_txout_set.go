package appmessage

// LoadTxOutSetRequestMessage is an appmessage corresponding to
// its respective RPC message
type LoadTxOutSetRequestMessage struct {
	Path string `cramberry:"1"`
}

// Command returns the protocol command string for the message
func (msg *LoadTxOutSetRequestMessage) Command() MessageCommand {
	return CmdLoadTxOutSetRequestMessage
}

// NewLoadTxOutSetRequestMessage returns a instance of the message
func NewLoadTxOutSetRequestMessage(path string) *LoadTxOutSetRequestMessage {
	return &LoadTxOutSetRequestMessage{
		Path: path,
	}
}

// LoadTxOutSetResponseMessage is an appmessage corresponding to
// its respective RPC message
type LoadTxOutSetResponseMessage struct {
	CoinsLoaded uint64 `cramberry:"1"`
	BaseHash    string `cramberry:"2"`
	BaseHeight  int32  `cramberry:"3"`
	Path        string `cramberry:"4"`

	Error *RPCError `cramberry:"5"`
}

// Command returns the protocol command string for the message
func (msg *LoadTxOutSetResponseMessage) Command() MessageCommand {
	return CmdLoadTxOutSetResponseMessage
}

// RPCError returns the error the response carries, if any
func (msg *LoadTxOutSetResponseMessage) RPCError() *RPCError {
	return msg.Error
}

// NewLoadTxOutSetResponseMessage returns a instance of the message
func NewLoadTxOutSetResponseMessage() *LoadTxOutSetResponseMessage {
	return &LoadTxOutSetResponseMessage{}
}
