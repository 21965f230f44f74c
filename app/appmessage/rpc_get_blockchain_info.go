package appmessage

// GetBlockchainInfoRequestMessage is an appmessage corresponding to
// its respective RPC message
type GetBlockchainInfoRequestMessage struct{}

// Command returns the protocol command string for the message
func (msg *GetBlockchainInfoRequestMessage) Command() MessageCommand {
	return CmdGetBlockchainInfoRequestMessage
}

// NewGetBlockchainInfoRequestMessage returns a instance of the message
func NewGetBlockchainInfoRequestMessage() *GetBlockchainInfoRequestMessage {
	return &GetBlockchainInfoRequestMessage{}
}

// GetBlockchainInfoResponseMessage is an appmessage corresponding to
// its respective RPC message
type GetBlockchainInfoResponseMessage struct {
	Chain         string `cramberry:"1"`
	Blocks        int32  `cramberry:"2"`
	Headers       int32  `cramberry:"3"`
	BestBlockHash string `cramberry:"4"`
	MempoolSize   uint32 `cramberry:"5"`

	// SnapshotState is the stage of the snapshot bootstrap the node is in.
	SnapshotState string `cramberry:"6"`

	Error *RPCError `cramberry:"7"`
}

// Command returns the protocol command string for the message
func (msg *GetBlockchainInfoResponseMessage) Command() MessageCommand {
	return CmdGetBlockchainInfoResponseMessage
}

// RPCError returns the error the response carries, if any
func (msg *GetBlockchainInfoResponseMessage) RPCError() *RPCError {
	return msg.Error
}

// NewGetBlockchainInfoResponseMessage returns a instance of the message
func NewGetBlockchainInfoResponseMessage() *GetBlockchainInfoResponseMessage {
	return &GetBlockchainInfoResponseMessage{}
}
