package chainstate

import (
	"github.com/kaspanet/chainstated/infrastructure/logger"
	"github.com/kaspanet/chainstated/util/panics"
)

var log = logger.RegisterSubSystem("CHST")
var spawn = panics.GoroutineWrapperFunc(log)
