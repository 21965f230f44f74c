package coinstore

import (
	"github.com/kaspanet/chainstated/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CSTR")
