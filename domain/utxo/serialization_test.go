package utxo

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
)

func TestCoinSerialization(t *testing.T) {
	outpoint := wire.NewOutPoint(&chainhash.Hash{0x01, 0x02}, 3)
	entry := NewEntry(5000000000, []byte{txscript.OP_TRUE}, true, 299)

	serialized, err := SerializeCoinToBytes(outpoint, entry)
	if err != nil {
		t.Fatalf("SerializeCoinToBytes unexpectedly failed: %s", err)
	}
	// txid, LE index, VARINT(299*2+1), VARINT(compressed 50 BTC), VARINT(1+6), OP_TRUE
	expectedTail := []byte{0x03, 0x00, 0x00, 0x00, 0x83, 0x57, 0x32, 0x07, txscript.OP_TRUE}
	if !bytes.Equal(serialized[chainhash.HashSize:], expectedTail) {
		t.Fatalf("unexpected serialization %x", serialized)
	}

	decodedOutpoint, decodedEntry, err := DeserializeCoin(bytes.NewReader(serialized))
	if err != nil {
		t.Fatalf("DeserializeCoin unexpectedly failed: %s", err)
	}
	if *decodedOutpoint != *outpoint {
		t.Fatalf("decoded outpoint %s, want %s", decodedOutpoint, outpoint)
	}
	if !decodedEntry.Equal(entry) {
		t.Fatalf("decoded entry %s, want %s", spew.Sdump(decodedEntry), spew.Sdump(entry))
	}
}

func TestOutpointKeyOrder(t *testing.T) {
	hash := chainhash.Hash{0xaa}
	low := SerializeOutpointKey(wire.NewOutPoint(&hash, 2))
	high := SerializeOutpointKey(wire.NewOutPoint(&hash, 256))
	if bytes.Compare(low, high) >= 0 {
		t.Fatalf("outpoint keys don't sort by index: %x >= %x", low, high)
	}
	outpoint, err := DeserializeOutpointKey(high)
	if err != nil {
		t.Fatalf("DeserializeOutpointKey unexpectedly failed: %s", err)
	}
	if outpoint.Index != 256 || outpoint.Hash != hash {
		t.Fatalf("unexpected outpoint %s", outpoint)
	}
	if _, err := DeserializeOutpointKey(high[1:]); err == nil {
		t.Fatalf("DeserializeOutpointKey unexpectedly accepted a short key")
	}
}

func TestEntryBytes(t *testing.T) {
	entry := NewEntry(1, []byte{txscript.OP_RETURN, 0x01, 0x02}, false, 0)
	serialized, err := SerializeEntryToBytes(entry)
	if err != nil {
		t.Fatalf("SerializeEntryToBytes unexpectedly failed: %s", err)
	}
	decoded, err := DeserializeEntryFromBytes(serialized)
	if err != nil {
		t.Fatalf("DeserializeEntryFromBytes unexpectedly failed: %s", err)
	}
	if !decoded.Equal(entry) {
		t.Fatalf("decoded %s, want %s", decoded, entry)
	}
	_, err = DeserializeEntryFromBytes(append(serialized, 0x00))
	if err == nil {
		t.Fatalf("DeserializeEntryFromBytes unexpectedly accepted trailing bytes")
	}
}
