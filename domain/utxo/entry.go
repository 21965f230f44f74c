package utxo

import (
	"bytes"
	"fmt"
)

// Entry houses details about an individual transaction output in a UTXO
// set: whether or not it was contained in a coinbase tx, the height of the
// block that contains the tx, its public key script and how much it pays.
type Entry struct {
	// NOTE: The field order is chosen to minimize padding on 64-bit
	// platforms. There are a lot of these in memory.

	amount      uint64
	pkScript    []byte
	blockHeight uint32
	isCoinbase  bool
}

// NewEntry creates a new UTXO entry.
func NewEntry(amount uint64, pkScript []byte, isCoinbase bool, blockHeight uint32) *Entry {
	return &Entry{
		amount:      amount,
		pkScript:    pkScript,
		blockHeight: blockHeight,
		isCoinbase:  isCoinbase,
	}
}

// Amount returns the amount of the output.
func (entry *Entry) Amount() uint64 {
	return entry.amount
}

// PkScript returns the public key script for the output.
func (entry *Entry) PkScript() []byte {
	return entry.pkScript
}

// BlockHeight returns the height of the block containing the output.
func (entry *Entry) BlockHeight() uint32 {
	return entry.blockHeight
}

// IsCoinbase returns whether or not the output was contained in a block
// reward transaction.
func (entry *Entry) IsCoinbase() bool {
	return entry.isCoinbase
}

// Equal returns whether entry equals other.
func (entry *Entry) Equal(other *Entry) bool {
	if entry == nil || other == nil {
		return entry == other
	}
	return entry.amount == other.amount &&
		entry.blockHeight == other.blockHeight &&
		entry.isCoinbase == other.isCoinbase &&
		bytes.Equal(entry.pkScript, other.pkScript)
}

func (entry *Entry) String() string {
	return fmt.Sprintf("(amount: %d, height: %d, coinbase: %t, script: %x)",
		entry.amount, entry.blockHeight, entry.isCoinbase, entry.pkScript)
}
