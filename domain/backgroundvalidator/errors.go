package backgroundvalidator

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// FatalValidationMismatchError is returned when the chain replayed from
// genesis disagrees with the snapshot it was supposed to validate. The
// snapshot chainstate can't be trusted after it.
type FatalValidationMismatchError struct {
	BaseHeight int32
	BaseHash   chainhash.Hash
	Reason     string
}

func (e *FatalValidationMismatchError) Error() string {
	return fmt.Sprintf("background validation of the snapshot based on %s (height %d) failed: %s",
		e.BaseHash, e.BaseHeight, e.Reason)
}

func newMismatchError(target *Target, format string, args ...interface{}) *FatalValidationMismatchError {
	return &FatalValidationMismatchError{
		BaseHeight: target.BaseHeight,
		BaseHash:   target.BaseHash,
		Reason:     fmt.Sprintf(format, args...),
	}
}
