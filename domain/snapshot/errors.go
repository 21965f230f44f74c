package snapshot

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// FormatError indicates that a snapshot stream is structurally malformed:
// truncated, carrying extra coins, or containing an undecodable record.
type FormatError struct {
	// CoinsRead is the number of coins successfully decoded before the
	// problem was detected.
	CoinsRead uint64

	message string
	cause   error
}

func newFormatError(coinsRead uint64, message string, cause error) *FormatError {
	return &FormatError{
		CoinsRead: coinsRead,
		message:   message,
		cause:     cause,
	}
}

func (e *FormatError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, e.cause)
}

// Unwrap returns the decoding error that caused e, if any.
func (e *FormatError) Unwrap() error {
	return e.cause
}

// IntegrityError indicates that a structurally valid snapshot hashes to a
// content hash other than the expected one.
type IntegrityError struct {
	Expected chainhash.Hash
	Actual   chainhash.Hash
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("bad snapshot content hash: expected %s, got %s", e.Expected, e.Actual)
}
