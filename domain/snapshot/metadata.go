package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

// FormatVersion is the version of the snapshot file format written by this
// package.
const FormatVersion = 1

// MetadataSize is the size of a serialized snapshot header.
const MetadataSize = chainhash.HashSize + 8

// Metadata is the header of a snapshot file.
type Metadata struct {
	// BaseBlockHash is the hash of the block the snapshot was taken at.
	BaseBlockHash chainhash.Hash

	// CoinsCount is the number of coin records that follow the header.
	CoinsCount uint64
}

func (m *Metadata) String() string {
	return fmt.Sprintf("(base: %s, coins: %d)", m.BaseBlockHash, m.CoinsCount)
}

// Serialize writes the header: the base hash followed by the little endian
// coin count.
func (m *Metadata) Serialize(w io.Writer) error {
	var buf [MetadataSize]byte
	copy(buf[:], m.BaseBlockHash[:])
	binary.LittleEndian.PutUint64(buf[chainhash.HashSize:], m.CoinsCount)
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}

// DeserializeMetadata reads a header written by Serialize.
func DeserializeMetadata(r io.Reader) (*Metadata, error) {
	var buf [MetadataSize]byte
	_, err := io.ReadFull(r, buf[:])
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, newFormatError(0, "snapshot is too short to contain metadata", err)
		}
		return nil, errors.WithStack(err)
	}
	metadata := &Metadata{}
	copy(metadata.BaseBlockHash[:], buf[:chainhash.HashSize])
	metadata.CoinsCount = binary.LittleEndian.Uint64(buf[chainhash.HashSize:])
	return metadata, nil
}
