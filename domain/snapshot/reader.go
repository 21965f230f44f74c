package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/utxo"
	"github.com/pkg/errors"
)

// hashingReader hashes every byte read through it.
type hashingReader struct {
	reader *bufio.Reader
	hasher *HashWriter
}

func (hr *hashingReader) Read(p []byte) (int, error) {
	n, err := hr.reader.Read(p)
	hr.hasher.InfallibleWrite(p[:n])
	return n, err
}

func (hr *hashingReader) ReadByte() (byte, error) {
	b, err := hr.reader.ReadByte()
	if err != nil {
		return 0, err
	}
	hr.hasher.InfallibleWrite([]byte{b})
	return b, nil
}

// Reader lazily decodes a snapshot. The coin sequence is single-pass and
// forward-only; to read it again, reopen the source.
//
// Usage:
//
//	for reader.Next() {
//		outpoint, entry, err := reader.Get()
//		...
//	}
//	err := reader.Finish(expectedContentHash)
type Reader struct {
	buffered *bufio.Reader
	records  *hashingReader
	metadata *Metadata

	maxHeight uint32
	coinsRead uint64

	outpoint *wire.OutPoint
	entry    *utxo.Entry
	err      error
}

// NewReader reads the snapshot header from r. No coin is decoded until
// Next is called.
func NewReader(r io.Reader) (*Reader, error) {
	buffered := bufio.NewReader(r)
	metadata, err := DeserializeMetadata(buffered)
	if err != nil {
		return nil, err
	}
	return &Reader{
		buffered:  buffered,
		records:   &hashingReader{reader: buffered, hasher: NewContentHashWriter()},
		metadata:  metadata,
		maxHeight: math.MaxUint32,
	}, nil
}

// Metadata returns the snapshot header.
func (r *Reader) Metadata() *Metadata {
	return r.metadata
}

// LimitHeight makes any coin created above height a FormatError. Coins in a
// snapshot can't be newer than its base block.
func (r *Reader) LimitHeight(height uint32) {
	r.maxHeight = height
}

// Next decodes the next coin. It returns false once all declared coins were
// read or after a decoding error was returned by Get.
func (r *Reader) Next() bool {
	if r.err != nil || r.coinsRead == r.metadata.CoinsCount {
		return false
	}
	r.outpoint, r.entry, r.err = r.readCoin()
	if r.err == nil {
		r.coinsRead++
	}
	return true
}

// Get returns the coin decoded by the last call to Next.
func (r *Reader) Get() (*wire.OutPoint, *utxo.Entry, error) {
	if r.err != nil {
		return nil, nil, r.err
	}
	return r.outpoint, r.entry, nil
}

// CoinsRead returns the number of coins successfully decoded so far.
func (r *Reader) CoinsRead() uint64 {
	return r.coinsRead
}

func (r *Reader) readCoin() (*wire.OutPoint, *utxo.Entry, error) {
	outpoint, entry, err := utxo.DeserializeCoin(r.records)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil, errors.WithStack(newFormatError(r.coinsRead,
				fmt.Sprintf("bad snapshot format or truncated snapshot after deserializing %d coins",
					r.coinsRead), nil))
		}
		return nil, nil, errors.WithStack(newFormatError(r.coinsRead,
			fmt.Sprintf("bad snapshot data after deserializing %d coins", r.coinsRead), err))
	}

	switch {
	case entry.BlockHeight() > r.maxHeight:
		return nil, nil, errors.WithStack(newFormatError(r.coinsRead,
			fmt.Sprintf("bad snapshot data after deserializing %d coins - bad tx out height %d",
				r.coinsRead, entry.BlockHeight()), nil))
	case outpoint.Index >= wire.MaxPrevOutIndex:
		return nil, nil, errors.WithStack(newFormatError(r.coinsRead,
			fmt.Sprintf("bad snapshot data after deserializing %d coins - bad tx out index %d",
				r.coinsRead, outpoint.Index), nil))
	case entry.Amount() > btcutil.MaxSatoshi:
		return nil, nil, errors.WithStack(newFormatError(r.coinsRead,
			fmt.Sprintf("bad snapshot data after deserializing %d coins - bad tx out value %d",
				r.coinsRead, entry.Amount()), nil))
	}
	return outpoint, entry, nil
}

// ContentHash returns the content hash of the records read so far.
func (r *Reader) ContentHash() *chainhash.Hash {
	return r.records.hasher.Finalize()
}

// Finish verifies that the stream ended exactly after the declared coins and
// that their content hash equals expectedContentHash. A nil
// expectedContentHash skips the hash comparison.
func (r *Reader) Finish(expectedContentHash *chainhash.Hash) (*chainhash.Hash, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.coinsRead != r.metadata.CoinsCount {
		return nil, errors.Errorf("cannot finish a snapshot after reading %d out of %d coins",
			r.coinsRead, r.metadata.CoinsCount)
	}

	_, err := r.buffered.Peek(1)
	if err == nil {
		return nil, errors.WithStack(newFormatError(r.coinsRead,
			fmt.Sprintf("bad snapshot - coins left over after deserializing %d coins", r.coinsRead), nil))
	}
	if !errors.Is(err, io.EOF) {
		return nil, errors.WithStack(err)
	}

	contentHash := r.ContentHash()
	if expectedContentHash != nil && *contentHash != *expectedContentHash {
		return nil, errors.WithStack(&IntegrityError{
			Expected: *expectedContentHash,
			Actual:   *contentHash,
		})
	}
	log.Debugf("Snapshot %s decoded with content hash %s", r.metadata, contentHash)
	return contentHash, nil
}
