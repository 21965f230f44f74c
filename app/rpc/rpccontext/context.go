package rpccontext

import (
	"github.com/kaspanet/chainstated/domain"
	"github.com/kaspanet/chainstated/infrastructure/config"
)

// Context represents the RPC context
type Context struct {
	Config *config.Config
	Domain domain.Domain

	// ShutDownChan is signaled when the Stop RPC is called.
	ShutDownChan chan<- struct{}
}

// NewContext creates a new RPC context
func NewContext(cfg *config.Config, domain domain.Domain, shutDownChan chan<- struct{}) *Context {
	return &Context{
		Config:       cfg,
		Domain:       domain,
		ShutDownChan: shutDownChan,
	}
}
