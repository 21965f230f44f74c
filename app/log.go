package app

import (
	"github.com/kaspanet/chainstated/infrastructure/logger"
	"github.com/kaspanet/chainstated/util/panics"
)

var log = logger.RegisterSubSystem("CSTD")
var spawn = panics.GoroutineWrapperFunc(log)
