package snapshot

import (
	"bufio"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/utxo"
	"github.com/pkg/errors"
)

// Writer streams a snapshot: the metadata header followed by exactly
// metadata.CoinsCount coin records.
type Writer struct {
	buffered *bufio.Writer
	records  io.Writer
	hasher   *HashWriter

	metadata     Metadata
	coinsWritten uint64
	finished     bool
}

// NewWriter writes the metadata header to w and returns a Writer for the
// coin records.
func NewWriter(w io.Writer, metadata *Metadata) (*Writer, error) {
	buffered := bufio.NewWriter(w)
	err := metadata.Serialize(buffered)
	if err != nil {
		return nil, err
	}
	hasher := NewContentHashWriter()
	return &Writer{
		buffered: buffered,
		records:  io.MultiWriter(buffered, hasher),
		hasher:   hasher,
		metadata: *metadata,
	}, nil
}

// WriteCoin writes a single coin record.
func (w *Writer) WriteCoin(outpoint *wire.OutPoint, entry *utxo.Entry) error {
	if w.finished {
		return errors.New("cannot write to a finished snapshot writer")
	}
	if w.coinsWritten == w.metadata.CoinsCount {
		return errors.Errorf("snapshot metadata declares %d coins, cannot write more",
			w.metadata.CoinsCount)
	}
	err := utxo.SerializeCoin(w.records, outpoint, entry)
	if err != nil {
		return err
	}
	w.coinsWritten++
	return nil
}

// CoinsWritten returns the number of coin records written so far.
func (w *Writer) CoinsWritten() uint64 {
	return w.coinsWritten
}

// Finish flushes the stream and returns the content hash of the written
// records. It fails if fewer coins than declared were written.
func (w *Writer) Finish() (*chainhash.Hash, error) {
	if w.finished {
		return nil, errors.New("snapshot writer is already finished")
	}
	if w.coinsWritten != w.metadata.CoinsCount {
		return nil, errors.Errorf("snapshot metadata declares %d coins, but %d were written",
			w.metadata.CoinsCount, w.coinsWritten)
	}
	w.finished = true
	err := w.buffered.Flush()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return w.hasher.Finalize(), nil
}

// CoinIterator is a forward-only sequence of coins, in the style of
// database cursors.
type CoinIterator interface {
	Next() bool
	Get() (*wire.OutPoint, *utxo.Entry, error)
}

// Encode writes a complete snapshot of the coins in iterator. The iterator
// must yield exactly metadata.CoinsCount coins.
func Encode(w io.Writer, metadata *Metadata, iterator CoinIterator) (*chainhash.Hash, error) {
	writer, err := NewWriter(w, metadata)
	if err != nil {
		return nil, err
	}
	for iterator.Next() {
		outpoint, entry, err := iterator.Get()
		if err != nil {
			return nil, err
		}
		err = writer.WriteCoin(outpoint, entry)
		if err != nil {
			return nil, err
		}
	}
	return writer.Finish()
}
