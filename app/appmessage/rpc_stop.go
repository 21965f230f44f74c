package appmessage

// StopRequestMessage is an appmessage corresponding to
// its respective RPC message
type StopRequestMessage struct{}

// Command returns the protocol command string for the message
func (msg *StopRequestMessage) Command() MessageCommand {
	return CmdStopRequestMessage
}

// NewStopRequestMessage returns a instance of the message
func NewStopRequestMessage() *StopRequestMessage {
	return &StopRequestMessage{}
}

// StopResponseMessage is an appmessage corresponding to
// its respective RPC message
type StopResponseMessage struct {
	Error *RPCError `cramberry:"1"`
}

// Command returns the protocol command string for the message
func (msg *StopResponseMessage) Command() MessageCommand {
	return CmdStopResponseMessage
}

// RPCError returns the error the response carries, if any
func (msg *StopResponseMessage) RPCError() *RPCError {
	return msg.Error
}

// NewStopResponseMessage returns a instance of the message
func NewStopResponseMessage() *StopResponseMessage {
	return &StopResponseMessage{}
}
