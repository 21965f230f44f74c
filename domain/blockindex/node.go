package blockindex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// Node is a block in the header chain.
type Node struct {
	Hash   chainhash.Hash
	Header wire.BlockHeader
	Height int32

	// HasData is true once the block body is stored.
	HasData bool

	// TxCount is the number of transactions in the block. It's zero until
	// the body is stored.
	TxCount uint64

	// ChainTxCount is the number of transactions in the chain up to and
	// including this block, or zero while unknown.
	ChainTxCount uint64
}

func (node *Node) String() string {
	return fmt.Sprintf("%s (height %d)", node.Hash, node.Height)
}

func (node *Node) clone() *Node {
	clone := *node
	return &clone
}

const (
	nodeFlagHasData = 1 << iota
)

func serializeNode(node *Node) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := node.Header.Serialize(buf)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var fields [4 + 1 + 8 + 8]byte
	binary.LittleEndian.PutUint32(fields[:4], uint32(node.Height))
	if node.HasData {
		fields[4] |= nodeFlagHasData
	}
	binary.LittleEndian.PutUint64(fields[5:13], node.TxCount)
	binary.LittleEndian.PutUint64(fields[13:], node.ChainTxCount)
	buf.Write(fields[:])
	return buf.Bytes(), nil
}

func deserializeNode(serialized []byte) (*Node, error) {
	r := bytes.NewReader(serialized)
	node := &Node{}
	err := node.Header.Deserialize(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var fields [4 + 1 + 8 + 8]byte
	_, err = io.ReadFull(r, fields[:])
	if err != nil || r.Len() != 0 {
		return nil, errors.Errorf("malformed block index node")
	}
	node.Hash = node.Header.BlockHash()
	node.Height = int32(binary.LittleEndian.Uint32(fields[:4]))
	node.HasData = fields[4]&nodeFlagHasData != 0
	node.TxCount = binary.LittleEndian.Uint64(fields[5:13])
	node.ChainTxCount = binary.LittleEndian.Uint64(fields[13:])
	return node, nil
}
