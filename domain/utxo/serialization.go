package utxo

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// Reader is the reader the deserialization functions expect. VARINTs are
// read byte by byte, so callers should pass a buffered reader.
type Reader interface {
	io.Reader
	io.ByteReader
}

// OutpointKeySize is the size of an outpoint serialized by
// SerializeOutpointKey.
const OutpointKeySize = chainhash.HashSize + 4

// outpointKeyIndexByteOrder is the byte order of the outpoint index inside
// database keys. It's big endian so that keys iterate in ascending order by
// index within a transaction.
var outpointKeyIndexByteOrder = binary.BigEndian

// outpointRecordIndexByteOrder is the byte order of the outpoint index inside
// coin records.
var outpointRecordIndexByteOrder = binary.LittleEndian

// SerializeOutpointKey serializes outpoint into a database key. Keys sort by
// txid and then by index.
func SerializeOutpointKey(outpoint *wire.OutPoint) []byte {
	key := make([]byte, OutpointKeySize)
	copy(key, outpoint.Hash[:])
	outpointKeyIndexByteOrder.PutUint32(key[chainhash.HashSize:], outpoint.Index)
	return key
}

// DeserializeOutpointKey is the inverse of SerializeOutpointKey.
func DeserializeOutpointKey(key []byte) (*wire.OutPoint, error) {
	if len(key) != OutpointKeySize {
		return nil, errors.Errorf("outpoint key has length %d, expected %d", len(key), OutpointKeySize)
	}
	outpoint := &wire.OutPoint{}
	copy(outpoint.Hash[:], key[:chainhash.HashSize])
	outpoint.Index = outpointKeyIndexByteOrder.Uint32(key[chainhash.HashSize:])
	return outpoint, nil
}

// entryCode packs the height and the coinbase flag the way they're stored
// in a coin record: height*2 + coinbase.
func entryCode(entry *Entry) uint64 {
	code := uint64(entry.blockHeight) << 1
	if entry.isCoinbase {
		code |= 1
	}
	return code
}

// SerializeEntry writes entry as VARINT(code), VARINT(compressed amount)
// and the compressed script.
func SerializeEntry(w io.Writer, entry *Entry) error {
	err := WriteVarInt(w, entryCode(entry))
	if err != nil {
		return err
	}
	err = WriteVarInt(w, CompressAmount(entry.amount))
	if err != nil {
		return err
	}
	return WriteCompressedScript(w, entry.pkScript)
}

// DeserializeEntry reads an entry written by SerializeEntry.
func DeserializeEntry(r Reader) (*Entry, error) {
	code, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if code>>1 > uint64(^uint32(0)) {
		return nil, errors.Errorf("coin height %d is out of range", code>>1)
	}
	compressedAmount, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	pkScript, err := ReadCompressedScript(r)
	if err != nil {
		return nil, err
	}
	return &Entry{
		amount:      DecompressAmount(compressedAmount),
		pkScript:    pkScript,
		blockHeight: uint32(code >> 1),
		isCoinbase:  code&1 == 1,
	}, nil
}

// SerializeEntryToBytes is SerializeEntry into a new byte slice.
func SerializeEntryToBytes(entry *Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := SerializeEntry(buf, entry)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeEntryFromBytes is DeserializeEntry over a byte slice. Trailing
// bytes are an error.
func DeserializeEntryFromBytes(serialized []byte) (*Entry, error) {
	r := bytes.NewReader(serialized)
	entry, err := DeserializeEntry(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after a serialized entry", r.Len())
	}
	return entry, nil
}

// SerializeCoin writes a coin record: the txid, the little endian output
// index and the serialized entry.
func SerializeCoin(w io.Writer, outpoint *wire.OutPoint, entry *Entry) error {
	var record [OutpointKeySize]byte
	copy(record[:], outpoint.Hash[:])
	outpointRecordIndexByteOrder.PutUint32(record[chainhash.HashSize:], outpoint.Index)
	_, err := w.Write(record[:])
	if err != nil {
		return errors.WithStack(err)
	}
	return SerializeEntry(w, entry)
}

// DeserializeCoin reads a coin record written by SerializeCoin.
func DeserializeCoin(r Reader) (*wire.OutPoint, *Entry, error) {
	var record [OutpointKeySize]byte
	_, err := io.ReadFull(r, record[:])
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	outpoint := &wire.OutPoint{}
	copy(outpoint.Hash[:], record[:chainhash.HashSize])
	outpoint.Index = outpointRecordIndexByteOrder.Uint32(record[chainhash.HashSize:])

	entry, err := DeserializeEntry(r)
	if err != nil {
		return nil, nil, err
	}
	return outpoint, entry, nil
}

// SerializeCoinToBytes is SerializeCoin into a new byte slice.
func SerializeCoinToBytes(outpoint *wire.OutPoint, entry *Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := SerializeCoin(buf, outpoint, entry)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
