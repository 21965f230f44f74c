package blockvalidation

import (
	"github.com/kaspanet/chainstated/infrastructure/logger"
)

var log = logger.RegisterSubSystem("BVLD")
