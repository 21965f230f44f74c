package appmessage

import (
	"fmt"
)

// RPCError represents an error arriving from the RPC
type RPCError struct {
	Message string `cramberry:"1"`
}

func (err RPCError) Error() string {
	return err.Message
}

// RPCErrorf formats according to a format specifier and returns the string
// as an RPCError.
func RPCErrorf(format string, args ...interface{}) *RPCError {
	return &RPCError{
		Message: fmt.Sprintf(format, args...),
	}
}

// ResponseError is implemented by every response message.
type ResponseError interface {
	Message
	RPCError() *RPCError
}
