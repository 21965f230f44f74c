package backgroundvalidator

import (
	"github.com/kaspanet/chainstated/infrastructure/logger"
)

var log = logger.RegisterSubSystem("BVAL")
