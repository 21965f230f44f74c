package utxo

import (
	"io"
	"math"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
)

// Special script types. Any other script is stored as VARINT(len+numSpecialScripts)
// followed by the raw script.
const (
	scriptTypeP2PKH           = 0x00
	scriptTypeP2SH            = 0x01
	scriptTypeP2PKEvenY       = 0x02
	scriptTypeP2PKOddY        = 0x03
	scriptTypeP2PKUncompEvenY = 0x04
	scriptTypeP2PKUncompOddY  = 0x05

	numSpecialScripts = 6
)

// ErrMalformedScript is returned when a compressed script can't be
// decompressed.
var ErrMalformedScript = errors.New("malformed compressed script")

// CompressAmount compresses an amount of satoshis. Amounts that are
// multiples of a power of ten, as most amounts are, compress well.
func CompressAmount(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	e := uint64(0)
	for n%10 == 0 && e < 9 {
		n /= 10
		e++
	}
	if e < 9 {
		d := n % 10
		n /= 10
		return 1 + (n*9+d-1)*10 + e
	}
	return 1 + (n-1)*10 + 9
}

// DecompressAmount is the inverse of CompressAmount.
func DecompressAmount(x uint64) uint64 {
	if x == 0 {
		return 0
	}
	x--
	e := x % 10
	x /= 10
	var n uint64
	if e < 9 {
		d := x%9 + 1
		x /= 9
		n = x*10 + d
	} else {
		n = x + 1
	}
	for ; e > 0; e-- {
		n *= 10
	}
	return n
}

func isP2PKH(script []byte) bool {
	return len(script) == 25 &&
		script[0] == txscript.OP_DUP &&
		script[1] == txscript.OP_HASH160 &&
		script[2] == txscript.OP_DATA_20 &&
		script[23] == txscript.OP_EQUALVERIFY &&
		script[24] == txscript.OP_CHECKSIG
}

func isP2SH(script []byte) bool {
	return len(script) == 23 &&
		script[0] == txscript.OP_HASH160 &&
		script[1] == txscript.OP_DATA_20 &&
		script[22] == txscript.OP_EQUAL
}

func isCompressedP2PK(script []byte) bool {
	return len(script) == 35 &&
		script[0] == txscript.OP_DATA_33 &&
		script[34] == txscript.OP_CHECKSIG &&
		(script[1] == 0x02 || script[1] == 0x03)
}

func isUncompressedP2PK(script []byte) bool {
	if len(script) != 67 ||
		script[0] != txscript.OP_DATA_65 ||
		script[66] != txscript.OP_CHECKSIG ||
		script[1] != 0x04 {
		return false
	}
	// Only keys that are on the curve can be restored from their
	// x coordinate.
	_, err := btcec.ParsePubKey(script[1:66])
	return err == nil
}

// compressScript returns the special encoding of script, or nil if the
// script has none.
func compressScript(script []byte) []byte {
	switch {
	case isP2PKH(script):
		compressed := make([]byte, 21)
		compressed[0] = scriptTypeP2PKH
		copy(compressed[1:], script[3:23])
		return compressed
	case isP2SH(script):
		compressed := make([]byte, 21)
		compressed[0] = scriptTypeP2SH
		copy(compressed[1:], script[2:22])
		return compressed
	case isCompressedP2PK(script):
		compressed := make([]byte, 33)
		copy(compressed, script[1:34])
		return compressed
	case isUncompressedP2PK(script):
		compressed := make([]byte, 33)
		compressed[0] = scriptTypeP2PKUncompEvenY | (script[65] & 0x01)
		copy(compressed[1:], script[2:34])
		return compressed
	}
	return nil
}

func specialScriptPayloadSize(scriptType uint64) int {
	switch scriptType {
	case scriptTypeP2PKH, scriptTypeP2SH:
		return 20
	case scriptTypeP2PKEvenY, scriptTypeP2PKOddY, scriptTypeP2PKUncompEvenY, scriptTypeP2PKUncompOddY:
		return 32
	}
	return 0
}

func decompressScript(scriptType uint64, payload []byte) ([]byte, error) {
	switch scriptType {
	case scriptTypeP2PKH:
		script := make([]byte, 25)
		script[0] = txscript.OP_DUP
		script[1] = txscript.OP_HASH160
		script[2] = txscript.OP_DATA_20
		copy(script[3:], payload)
		script[23] = txscript.OP_EQUALVERIFY
		script[24] = txscript.OP_CHECKSIG
		return script, nil
	case scriptTypeP2SH:
		script := make([]byte, 23)
		script[0] = txscript.OP_HASH160
		script[1] = txscript.OP_DATA_20
		copy(script[2:], payload)
		script[22] = txscript.OP_EQUAL
		return script, nil
	case scriptTypeP2PKEvenY, scriptTypeP2PKOddY:
		script := make([]byte, 35)
		script[0] = txscript.OP_DATA_33
		script[1] = byte(scriptType)
		copy(script[2:], payload)
		script[34] = txscript.OP_CHECKSIG
		return script, nil
	case scriptTypeP2PKUncompEvenY, scriptTypeP2PKUncompOddY:
		compressedKey := make([]byte, 33)
		compressedKey[0] = byte(scriptType - 2)
		copy(compressedKey[1:], payload)
		key, err := btcec.ParsePubKey(compressedKey)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedScript, "invalid public key: %s", err)
		}
		script := make([]byte, 67)
		script[0] = txscript.OP_DATA_65
		copy(script[1:66], key.SerializeUncompressed())
		script[66] = txscript.OP_CHECKSIG
		return script, nil
	}
	return nil, errors.Wrapf(ErrMalformedScript, "unknown special script type %d", scriptType)
}

// WriteCompressedScript writes script in its compressed form.
func WriteCompressedScript(w io.Writer, script []byte) error {
	compressed := compressScript(script)
	if compressed != nil {
		_, err := w.Write(compressed)
		return errors.WithStack(err)
	}
	err := WriteVarInt(w, uint64(len(script))+numSpecialScripts)
	if err != nil {
		return err
	}
	_, err = w.Write(script)
	return errors.WithStack(err)
}

// ReadCompressedScript reads a script written by WriteCompressedScript.
// Scripts longer than txscript.MaxScriptSize are never spendable, so they
// are skipped and replaced with a single OP_RETURN.
func ReadCompressedScript(r Reader) ([]byte, error) {
	size, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if size < numSpecialScripts {
		payload := make([]byte, specialScriptPayloadSize(size))
		_, err := io.ReadFull(r, payload)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return decompressScript(size, payload)
	}

	size -= numSpecialScripts
	if size > math.MaxInt32 {
		return nil, errors.Wrapf(ErrMalformedScript, "script size %d is too large", size)
	}
	if size > txscript.MaxScriptSize {
		_, err := io.CopyN(io.Discard, r, int64(size))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return []byte{txscript.OP_RETURN}, nil
	}
	script := make([]byte, size)
	_, err = io.ReadFull(r, script)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return script, nil
}
