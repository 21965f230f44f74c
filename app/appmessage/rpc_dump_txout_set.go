package appmessage

// DumpTxOutSetRequestMessage is an appmessage corresponding to
// its respective RPC message
type DumpTxOutSetRequestMessage struct {
	Path string `cramberry:"1"`
}

// Command returns the protocol command string for the message
func (msg *DumpTxOutSetRequestMessage) Command() MessageCommand {
	return CmdDumpTxOutSetRequestMessage
}

// NewDumpTxOutSetRequestMessage returns a instance of the message
func NewDumpTxOutSetRequestMessage(path string) *DumpTxOutSetRequestMessage {
	return &DumpTxOutSetRequestMessage{
		Path: path,
	}
}

// DumpTxOutSetResponseMessage is an appmessage corresponding to
// its respective RPC message
type DumpTxOutSetResponseMessage struct {
	CoinsWritten uint64 `cramberry:"1"`
	BaseHash     string `cramberry:"2"`
	BaseHeight   int32  `cramberry:"3"`
	Path         string `cramberry:"4"`
	TxOutSetHash string `cramberry:"5"`
	NChainTx     uint64 `cramberry:"6"`

	Error *RPCError `cramberry:"7"`
}

// Command returns the protocol command string for the message
func (msg *DumpTxOutSetResponseMessage) Command() MessageCommand {
	return CmdDumpTxOutSetResponseMessage
}

// RPCError returns the error the response carries, if any
func (msg *DumpTxOutSetResponseMessage) RPCError() *RPCError {
	return msg.Error
}

// NewDumpTxOutSetResponseMessage returns a instance of the message
func NewDumpTxOutSetResponseMessage() *DumpTxOutSetResponseMessage {
	return &DumpTxOutSetResponseMessage{}
}
