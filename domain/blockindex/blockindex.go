package blockindex

import (
	"bytes"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/chainparams"
	"github.com/kaspanet/chainstated/infrastructure/db/database"
	"github.com/pkg/errors"
)

var (
	nodesBucket  = database.MakeBucket([]byte("block-index"))
	blocksBucket = database.MakeBucket([]byte("blocks"))
)

// BlockIndex keeps the header chain and the block bodies received so far.
// It's a single chain: a header is accepted only if it extends the current
// header tip or is already known.
type BlockIndex struct {
	db     database.Database
	params *chainparams.Params

	mtx      sync.RWMutex
	nodes    map[chainhash.Hash]*Node
	byHeight []*Node

	blockAddedChan chan struct{}
}

// New loads the block index from db, initializing it with the genesis
// block if it's empty.
func New(db database.Database, params *chainparams.Params) (*BlockIndex, error) {
	bi := &BlockIndex{
		db:             db,
		params:         params,
		nodes:          make(map[chainhash.Hash]*Node),
		blockAddedChan: make(chan struct{}),
	}
	err := bi.load()
	if err != nil {
		return nil, err
	}
	if len(bi.byHeight) == 0 {
		_, err := bi.AddBlock(params.GenesisBlock)
		if err != nil {
			return nil, err
		}
	}
	if bi.byHeight[0].Hash != *params.GenesisHash {
		return nil, errors.Errorf("the block index was created for a different network, "+
			"its genesis is %s", bi.byHeight[0].Hash)
	}
	return bi, nil
}

func (bi *BlockIndex) load() error {
	cursor, err := bi.db.Cursor(nodesBucket)
	if err != nil {
		return err
	}
	defer cursor.Close()

	var nodes []*Node
	for cursor.Next() {
		serialized, err := cursor.Value()
		if err != nil {
			return err
		}
		node, err := deserializeNode(serialized)
		if err != nil {
			return err
		}
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Height < nodes[j].Height })
	for i, node := range nodes {
		if int(node.Height) != i {
			return errors.Errorf("the block index is corrupted: node %s found at position %d", node, i)
		}
		bi.nodes[node.Hash] = node
		bi.byHeight = append(bi.byHeight, node)
	}
	if len(nodes) > 0 {
		log.Debugf("Loaded %d headers, header tip is %s", len(nodes), nodes[len(nodes)-1])
	}
	return nil
}

func (bi *BlockIndex) storeNode(node *Node) error {
	serialized, err := serializeNode(node)
	if err != nil {
		return err
	}
	return bi.db.Put(nodesBucket.Key(node.Hash[:]), serialized)
}

// AddHeader adds header to the header chain. Adding a known header is a
// no-op.
func (bi *BlockIndex) AddHeader(header *wire.BlockHeader) (*Node, error) {
	bi.mtx.Lock()
	defer bi.mtx.Unlock()
	node, err := bi.addHeader(header)
	if err != nil {
		return nil, err
	}
	return node.clone(), nil
}

func (bi *BlockIndex) addHeader(header *wire.BlockHeader) (*Node, error) {
	hash := header.BlockHash()
	if node, ok := bi.nodes[hash]; ok {
		return node, nil
	}

	height := int32(0)
	if len(bi.byHeight) > 0 {
		parent, ok := bi.nodes[header.PrevBlock]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownParent, "parent %s of header %s is unknown",
				header.PrevBlock, hash)
		}
		tip := bi.byHeight[len(bi.byHeight)-1]
		if parent.Hash != tip.Hash {
			return nil, errors.Wrapf(ErrForkNotSupported, "header %s extends %s rather than the "+
				"header tip %s", hash, parent, tip)
		}
		height = parent.Height + 1
	} else if hash != *bi.params.GenesisHash {
		return nil, errors.Errorf("the first header must be the genesis %s", bi.params.GenesisHash)
	}

	node := &Node{
		Hash:   hash,
		Header: *header,
		Height: height,
	}
	err := bi.storeNode(node)
	if err != nil {
		return nil, err
	}
	bi.nodes[hash] = node
	bi.byHeight = append(bi.byHeight, node)
	log.Tracef("Added header %s", node)
	return node, nil
}

// AddBlock stores the body of block, adding its header first if needed.
func (bi *BlockIndex) AddBlock(block *wire.MsgBlock) (*Node, error) {
	bi.mtx.Lock()
	defer bi.mtx.Unlock()

	node, err := bi.addHeader(&block.Header)
	if err != nil {
		return nil, err
	}
	if node.HasData {
		return node.clone(), nil
	}

	buf := &bytes.Buffer{}
	err = block.Serialize(buf)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	err = bi.db.Put(blocksBucket.Key(node.Hash[:]), buf.Bytes())
	if err != nil {
		return nil, err
	}

	node.HasData = true
	node.TxCount = uint64(len(block.Transactions))
	err = bi.updateChainTxCounts(node.Height)
	if err != nil {
		return nil, err
	}
	log.Tracef("Added block %s", node)

	close(bi.blockAddedChan)
	bi.blockAddedChan = make(chan struct{})
	return node.clone(), nil
}

// updateChainTxCounts fills in ChainTxCount from height onward for as long
// as the previous block's count is known.
func (bi *BlockIndex) updateChainTxCounts(height int32) error {
	for ; int(height) < len(bi.byHeight); height++ {
		node := bi.byHeight[height]
		if !node.HasData {
			break
		}
		parentCount := uint64(0)
		if height > 0 {
			parentCount = bi.byHeight[height-1].ChainTxCount
			if parentCount == 0 {
				break
			}
		}
		node.ChainTxCount = parentCount + node.TxCount
		err := bi.storeNode(node)
		if err != nil {
			return err
		}
	}
	// Persist the body flags of a node whose count is still unknown.
	if int(height) < len(bi.byHeight) && bi.byHeight[height].HasData {
		return bi.storeNode(bi.byHeight[height])
	}
	return nil
}

// SetChainTxCount sets the chain transaction count of a block whose
// ancestors' bodies aren't available, such as a snapshot base.
func (bi *BlockIndex) SetChainTxCount(hash *chainhash.Hash, chainTxCount uint64) error {
	bi.mtx.Lock()
	defer bi.mtx.Unlock()

	node, ok := bi.nodes[*hash]
	if !ok {
		return errors.Wrapf(ErrBlockNotFound, "block %s is not in the index", hash)
	}
	node.ChainTxCount = chainTxCount
	err := bi.storeNode(node)
	if err != nil {
		return err
	}
	return bi.updateChainTxCounts(node.Height + 1)
}

// LookupNode returns the node of the block with the given hash.
func (bi *BlockIndex) LookupNode(hash *chainhash.Hash) (*Node, bool) {
	bi.mtx.RLock()
	defer bi.mtx.RUnlock()
	node, ok := bi.nodes[*hash]
	if !ok {
		return nil, false
	}
	return node.clone(), true
}

// HasHeader returns whether the header of the given block is in the chain.
func (bi *BlockIndex) HasHeader(hash *chainhash.Hash) bool {
	bi.mtx.RLock()
	defer bi.mtx.RUnlock()
	_, ok := bi.nodes[*hash]
	return ok
}

// HeaderHeight returns the height of the given block's header.
func (bi *BlockIndex) HeaderHeight(hash *chainhash.Hash) (int32, bool) {
	bi.mtx.RLock()
	defer bi.mtx.RUnlock()
	node, ok := bi.nodes[*hash]
	if !ok {
		return 0, false
	}
	return node.Height, true
}

// NodeByHeight returns the node of the header chain at height.
func (bi *BlockIndex) NodeByHeight(height int32) (*Node, bool) {
	bi.mtx.RLock()
	defer bi.mtx.RUnlock()
	if height < 0 || int(height) >= len(bi.byHeight) {
		return nil, false
	}
	return bi.byHeight[height].clone(), true
}

// HeaderTip returns the last node of the header chain.
func (bi *BlockIndex) HeaderTip() *Node {
	bi.mtx.RLock()
	defer bi.mtx.RUnlock()
	return bi.byHeight[len(bi.byHeight)-1].clone()
}

// Block returns the stored body of the given block.
func (bi *BlockIndex) Block(hash *chainhash.Hash) (*wire.MsgBlock, error) {
	serialized, err := bi.db.Get(blocksBucket.Key(hash[:]))
	if database.IsNotFoundError(err) {
		return nil, errors.Wrapf(ErrBlockNotFound, "block %s not found", hash)
	}
	if err != nil {
		return nil, err
	}
	block := &wire.MsgBlock{}
	err = block.Deserialize(bytes.NewReader(serialized))
	if err != nil {
		return nil, errors.Wrapf(err, "block %s is corrupted", hash)
	}
	return block, nil
}

// BlockAtHeight returns the body of the header chain's block at height.
// found is false if there's no such header or its body isn't stored yet.
func (bi *BlockIndex) BlockAtHeight(height int32) (block *wire.MsgBlock, found bool, err error) {
	node, ok := bi.NodeByHeight(height)
	if !ok || !node.HasData {
		return nil, false, nil
	}
	block, err = bi.Block(&node.Hash)
	if err != nil {
		return nil, false, err
	}
	return block, true, nil
}

// RemoveBlock forgets the body of an invalid block. Its header stays in
// the chain.
func (bi *BlockIndex) RemoveBlock(hash *chainhash.Hash) error {
	bi.mtx.Lock()
	defer bi.mtx.Unlock()
	node, ok := bi.nodes[*hash]
	if !ok {
		return nil
	}
	node.HasData = false
	node.TxCount = 0
	node.ChainTxCount = 0
	err := bi.storeNode(node)
	if err != nil {
		return err
	}
	return bi.db.Delete(blocksBucket.Key(hash[:]))
}

// BlockAdded returns a channel that's closed the next time a block body is
// added.
func (bi *BlockIndex) BlockAdded() <-chan struct{} {
	bi.mtx.RLock()
	defer bi.mtx.RUnlock()
	return bi.blockAddedChan
}
