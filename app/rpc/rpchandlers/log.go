package rpchandlers

import (
	"github.com/kaspanet/chainstated/infrastructure/logger"
	"github.com/kaspanet/chainstated/util/panics"
)

var log = logger.RegisterSubSystem("RPCS")
var spawn = panics.GoroutineWrapperFunc(log)
