package appmessage

// GetTxOutRequestMessage is an appmessage corresponding to
// its respective RPC message
type GetTxOutRequestMessage struct {
	TxID  string `cramberry:"1"`
	Index uint32 `cramberry:"2"`

	// IncludeMempool makes outputs of mempool transactions visible and
	// hides coins spent by them.
	IncludeMempool bool `cramberry:"3"`
}

// Command returns the protocol command string for the message
func (msg *GetTxOutRequestMessage) Command() MessageCommand {
	return CmdGetTxOutRequestMessage
}

// NewGetTxOutRequestMessage returns a instance of the message
func NewGetTxOutRequestMessage(txID string, index uint32, includeMempool bool) *GetTxOutRequestMessage {
	return &GetTxOutRequestMessage{
		TxID:           txID,
		Index:          index,
		IncludeMempool: includeMempool,
	}
}

// TxOut describes an unspent transaction output.
type TxOut struct {
	BestBlock       string `cramberry:"1"`
	Confirmations   int32  `cramberry:"2"`
	Value           int64  `cramberry:"3"`
	ScriptPubKeyHex string `cramberry:"4"`
	Coinbase        bool   `cramberry:"5"`
}

// GetTxOutResponseMessage is an appmessage corresponding to
// its respective RPC message. TxOut is nil if the output is spent or
// unknown.
type GetTxOutResponseMessage struct {
	TxOut *TxOut `cramberry:"1"`

	Error *RPCError `cramberry:"2"`
}

// Command returns the protocol command string for the message
func (msg *GetTxOutResponseMessage) Command() MessageCommand {
	return CmdGetTxOutResponseMessage
}

// RPCError returns the error the response carries, if any
func (msg *GetTxOutResponseMessage) RPCError() *RPCError {
	return msg.Error
}

// NewGetTxOutResponseMessage returns a instance of the message
func NewGetTxOutResponseMessage(txOut *TxOut) *GetTxOutResponseMessage {
	return &GetTxOutResponseMessage{TxOut: txOut}
}
