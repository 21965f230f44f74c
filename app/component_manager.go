package app

import (
	"sync/atomic"

	"github.com/kaspanet/chainstated/app/rpc"
	"github.com/kaspanet/chainstated/domain"
	"github.com/kaspanet/chainstated/infrastructure/config"
	"github.com/kaspanet/chainstated/infrastructure/network/rpcservice"
	"github.com/kaspanet/chainstated/infrastructure/os/signal"
)

// ComponentManager is a wrapper for all the chainstated services
type ComponentManager struct {
	cfg       *config.Config
	domain    domain.Domain
	rpcServer *rpcservice.RPCServer

	started, shutdown int32
}

// Start launches all the chainstated services.
func (a *ComponentManager) Start() error {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return nil
	}

	log.Trace("Starting chainstated")

	err := a.domain.Start()
	if err != nil {
		return err
	}

	if a.rpcServer != nil {
		return a.rpcServer.Start()
	}
	return nil
}

// Stop gracefully shuts down all the chainstated services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Chainstated is already in the process of shutting down")
		return
	}

	log.Warnf("Chainstated shutting down")

	if a.rpcServer != nil {
		a.rpcServer.Stop()
	}

	err := a.domain.Close()
	if err != nil {
		log.Errorf("Error closing the domain: %+v", err)
	}
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config, shutDownChan chan<- struct{}, onFatalError func(error)) (
	*ComponentManager, error) {

	domainConfig := &domain.Config{
		DataDir:                cfg.DataDir,
		Params:                 cfg.NetParams(),
		CoinCacheSize:          cfg.CoinCacheSize,
		DBCacheSizeMiB:         cfg.DBCacheSizeMiB,
		MaxMempoolTransactions: cfg.MaxMempoolTxs,
		StopAtHeight:           cfg.StopAtHeight,
		OnStopAtHeight:         signal.RequestShutdown,
		OnFatalError:           onFatalError,
	}
	domainInstance, err := domain.New(domainConfig)
	if err != nil {
		return nil, err
	}

	var rpcServer *rpcservice.RPCServer
	if !cfg.DisableRPC {
		rpcManager := rpc.NewManager(cfg, domainInstance, shutDownChan)
		rpcServer = rpcservice.NewRPCServer(cfg.RPCListen, rpcManager)
	}

	return &ComponentManager{
		cfg:       cfg,
		domain:    domainInstance,
		rpcServer: rpcServer,
	}, nil
}

// Domain returns the domain the ComponentManager runs
func (a *ComponentManager) Domain() domain.Domain {
	return a.domain
}
