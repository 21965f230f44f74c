package appmessage

// SubmitHeaderRequestMessage is an appmessage corresponding to
// its respective RPC message
type SubmitHeaderRequestMessage struct {
	HeaderHex string `cramberry:"1"`
}

// Command returns the protocol command string for the message
func (msg *SubmitHeaderRequestMessage) Command() MessageCommand {
	return CmdSubmitHeaderRequestMessage
}

// NewSubmitHeaderRequestMessage returns a instance of the message
func NewSubmitHeaderRequestMessage(headerHex string) *SubmitHeaderRequestMessage {
	return &SubmitHeaderRequestMessage{
		HeaderHex: headerHex,
	}
}

// SubmitHeaderResponseMessage is an appmessage corresponding to
// its respective RPC message
type SubmitHeaderResponseMessage struct {
	Error *RPCError `cramberry:"1"`
}

// Command returns the protocol command string for the message
func (msg *SubmitHeaderResponseMessage) Command() MessageCommand {
	return CmdSubmitHeaderResponseMessage
}

// RPCError returns the error the response carries, if any
func (msg *SubmitHeaderResponseMessage) RPCError() *RPCError {
	return msg.Error
}

// NewSubmitHeaderResponseMessage returns a instance of the message
func NewSubmitHeaderResponseMessage() *SubmitHeaderResponseMessage {
	return &SubmitHeaderResponseMessage{}
}
