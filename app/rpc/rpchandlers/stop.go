package rpchandlers

import (
	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/app/rpc/rpccontext"
)

// HandleStop handles the respectively named RPC command
func HandleStop(context *rpccontext.Context, _ appmessage.Message) (appmessage.Message, error) {
	log.Warn("Stop RPC called.")

	// The shutdown waits for this request to be answered, so it's requested
	// without blocking the handler.
	spawn("HandleStop", func() {
		select {
		case context.ShutDownChan <- struct{}{}:
		default:
			log.Debugf("A shutdown was already requested")
		}
	})

	return appmessage.NewStopResponseMessage(), nil
}
