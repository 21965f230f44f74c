package appmessage

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// MsgBlockToHex serializes block to its hex representation.
func MsgBlockToHex(block *wire.MsgBlock) (string, error) {
	var buf bytes.Buffer
	err := block.Serialize(&buf)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// HexToMsgBlock deserializes a block from its hex representation.
func HexToMsgBlock(blockHex string) (*wire.MsgBlock, error) {
	serialized, err := hex.DecodeString(blockHex)
	if err != nil {
		return nil, errors.Wrap(err, "block hex could not be decoded")
	}
	block := &wire.MsgBlock{}
	err = block.Deserialize(bytes.NewReader(serialized))
	if err != nil {
		return nil, errors.Wrap(err, "block could not be deserialized")
	}
	return block, nil
}

// BlockHeaderToHex serializes header to its hex representation.
func BlockHeaderToHex(header *wire.BlockHeader) (string, error) {
	var buf bytes.Buffer
	err := header.Serialize(&buf)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// HexToBlockHeader deserializes a block header from its hex representation.
func HexToBlockHeader(headerHex string) (*wire.BlockHeader, error) {
	serialized, err := hex.DecodeString(headerHex)
	if err != nil {
		return nil, errors.Wrap(err, "header hex could not be decoded")
	}
	header := &wire.BlockHeader{}
	err = header.Deserialize(bytes.NewReader(serialized))
	if err != nil {
		return nil, errors.Wrap(err, "header could not be deserialized")
	}
	return header, nil
}

// MsgTxToHex serializes tx to its hex representation.
func MsgTxToHex(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	err := tx.Serialize(&buf)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// HexToMsgTx deserializes a transaction from its hex representation.
func HexToMsgTx(txHex string) (*wire.MsgTx, error) {
	serialized, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, errors.Wrap(err, "transaction hex could not be decoded")
	}
	tx := &wire.MsgTx{}
	err = tx.Deserialize(bytes.NewReader(serialized))
	if err != nil {
		return nil, errors.Wrap(err, "transaction could not be deserialized")
	}
	return tx, nil
}
