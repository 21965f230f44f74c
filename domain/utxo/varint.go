package utxo

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// maxVarIntSize is the longest encoding of a uint64 in the MSB base-128
// format below.
const maxVarIntSize = 10

// ErrMalformedVarInt is returned when a VARINT is too large to fit into a
// uint64 or ends prematurely.
var ErrMalformedVarInt = errors.New("malformed VARINT")

// WriteVarInt writes n using the MSB base-128 encoding with an offset of one
// added to every continuation digit. Every integer has exactly one encoding,
// and it's shorter than the CompactSize encoding for values up to 2^49.
func WriteVarInt(w io.Writer, n uint64) error {
	var tmp [maxVarIntSize]byte
	length := 0
	for {
		continuation := byte(0)
		if length > 0 {
			continuation = 0x80
		}
		tmp[length] = byte(n&0x7f) | continuation
		if n <= 0x7f {
			break
		}
		n = (n >> 7) - 1
		length++
	}

	var out [maxVarIntSize]byte
	for i := 0; i <= length; i++ {
		out[i] = tmp[length-i]
	}
	_, err := w.Write(out[:length+1])
	return errors.WithStack(err)
}

// ReadVarInt reads an integer written by WriteVarInt.
func ReadVarInt(r io.ByteReader) (uint64, error) {
	var n uint64
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errors.WithStack(err)
		}
		if n > math.MaxUint64>>7 {
			return 0, errors.Wrap(ErrMalformedVarInt, "size too large")
		}
		n = (n << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return n, nil
		}
		if n == math.MaxUint64 {
			return 0, errors.Wrap(ErrMalformedVarInt, "size too large")
		}
		n++
	}
}

// VarIntSerializeSize returns the number of bytes WriteVarInt uses for n.
func VarIntSerializeSize(n uint64) int {
	size := 1
	for n > 0x7f {
		n = (n >> 7) - 1
		size++
	}
	return size
}
