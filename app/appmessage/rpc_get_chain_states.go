package appmessage

// GetChainStatesRequestMessage is an appmessage corresponding to
// its respective RPC message
type GetChainStatesRequestMessage struct{}

// Command returns the protocol command string for the message
func (msg *GetChainStatesRequestMessage) Command() MessageCommand {
	return CmdGetChainStatesRequestMessage
}

// NewGetChainStatesRequestMessage returns a instance of the message
func NewGetChainStatesRequestMessage() *GetChainStatesRequestMessage {
	return &GetChainStatesRequestMessage{}
}

// ChainState describes one of the node's chainstates. SnapshotBlockHash is
// empty for a chainstate that wasn't seeded from a snapshot.
type ChainState struct {
	Role              string `cramberry:"1"`
	Blocks            int32  `cramberry:"2"`
	BestBlockHash     string `cramberry:"3"`
	Validated         bool   `cramberry:"4"`
	SnapshotBlockHash string `cramberry:"5"`
	Coins             uint64 `cramberry:"6"`
}

// GetChainStatesResponseMessage is an appmessage corresponding to
// its respective RPC message. ChainStates are ordered with the active
// chainstate last.
type GetChainStatesResponseMessage struct {
	Headers     int32         `cramberry:"1"`
	ChainStates []*ChainState `cramberry:"2"`

	Error *RPCError `cramberry:"3"`
}

// Command returns the protocol command string for the message
func (msg *GetChainStatesResponseMessage) Command() MessageCommand {
	return CmdGetChainStatesResponseMessage
}

// RPCError returns the error the response carries, if any
func (msg *GetChainStatesResponseMessage) RPCError() *RPCError {
	return msg.Error
}

// NewGetChainStatesResponseMessage returns a instance of the message
func NewGetChainStatesResponseMessage(headers int32, chainStates []*ChainState) *GetChainStatesResponseMessage {
	return &GetChainStatesResponseMessage{
		Headers:     headers,
		ChainStates: chainStates,
	}
}
