package chainstate

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// HeadersNotSyncedError is returned when a snapshot's base block is not in
// the header chain yet.
type HeadersNotSyncedError struct {
	BaseHash chainhash.Hash
}

func (e *HeadersNotSyncedError) Error() string {
	return fmt.Sprintf("The base block header (%s) must appear in the headers chain. Make sure "+
		"all headers are syncing, and call this RPC again.", e.BaseHash)
}

// UnrecognizedSnapshotError is returned when a snapshot's base block is not
// one of the network's AssumeUTXO entries.
type UnrecognizedSnapshotError struct {
	BaseHash chainhash.Hash
}

func (e *UnrecognizedSnapshotError) Error() string {
	return fmt.Sprintf("assumeutxo block hash in snapshot metadata not recognized (%s)", e.BaseHash)
}

// MempoolNotEmptyError is returned when a snapshot is loaded while the
// mempool has transactions, which may conflict with the snapshot's coins.
type MempoolNotEmptyError struct {
	TransactionCount int
}

func (e *MempoolNotEmptyError) Error() string {
	return "can't activate a snapshot when mempool not empty"
}

// AlreadyLoadingError is returned when a snapshot is loaded while another
// one is being loaded or a snapshot chainstate already exists.
type AlreadyLoadingError struct {
	ExistingBaseHash *chainhash.Hash
}

func (e *AlreadyLoadingError) Error() string {
	if e.ExistingBaseHash != nil {
		return fmt.Sprintf("can't activate a snapshot-based chainstate more than once, "+
			"a snapshot based on %s is already active", e.ExistingBaseHash)
	}
	return "can't activate a snapshot-based chainstate more than once, a snapshot is " +
		"already being loaded"
}

// SnapshotCorruptError is returned when a snapshot's coins fail to decode
// or don't match the pinned content hash or coin count.
type SnapshotCorruptError struct {
	Path  string
	Cause error
}

func (e *SnapshotCorruptError) Error() string {
	return fmt.Sprintf("Unable to load UTXO snapshot %s: %s", e.Path, e.Cause)
}

// Unwrap returns the error that made the snapshot corrupt.
func (e *SnapshotCorruptError) Unwrap() error {
	return e.Cause
}

// SnapshotBehindTipError is returned when the chain has already been
// validated up to the snapshot's base block.
type SnapshotBehindTipError struct {
	BaseHash   chainhash.Hash
	BaseHeight int32
	TipHeight  int32
}

func (e *SnapshotBehindTipError) Error() string {
	return fmt.Sprintf("the snapshot base %s at height %d is not above the active tip at height %d",
		e.BaseHash, e.BaseHeight, e.TipHeight)
}

// UnknownSnapshotChainstateError is returned on startup when the snapshot
// chainstate on disk is based on a block the network doesn't recognize.
type UnknownSnapshotChainstateError struct {
	BaseHash chainhash.Hash
}

func (e *UnknownSnapshotChainstateError) Error() string {
	return fmt.Sprintf("Assumeutxo data not found for the given blockhash '%s'.", e.BaseHash)
}
