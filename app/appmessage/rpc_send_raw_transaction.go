package appmessage

// SendRawTransactionRequestMessage is an appmessage corresponding to
// its respective RPC message
type SendRawTransactionRequestMessage struct {
	TransactionHex string `cramberry:"1"`
}

// Command returns the protocol command string for the message
func (msg *SendRawTransactionRequestMessage) Command() MessageCommand {
	return CmdSendRawTransactionRequestMessage
}

// NewSendRawTransactionRequestMessage returns a instance of the message
func NewSendRawTransactionRequestMessage(transactionHex string) *SendRawTransactionRequestMessage {
	return &SendRawTransactionRequestMessage{
		TransactionHex: transactionHex,
	}
}

// SendRawTransactionResponseMessage is an appmessage corresponding to
// its respective RPC message
type SendRawTransactionResponseMessage struct {
	TxID string `cramberry:"1"`

	Error *RPCError `cramberry:"2"`
}

// Command returns the protocol command string for the message
func (msg *SendRawTransactionResponseMessage) Command() MessageCommand {
	return CmdSendRawTransactionResponseMessage
}

// RPCError returns the error the response carries, if any
func (msg *SendRawTransactionResponseMessage) RPCError() *RPCError {
	return msg.Error
}

// NewSendRawTransactionResponseMessage returns a instance of the message
func NewSendRawTransactionResponseMessage() *SendRawTransactionResponseMessage {
	return &SendRawTransactionResponseMessage{}
}
