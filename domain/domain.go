package domain

import (
	"path/filepath"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/blockindex"
	"github.com/kaspanet/chainstated/domain/blockvalidation"
	"github.com/kaspanet/chainstated/domain/chainparams"
	"github.com/kaspanet/chainstated/domain/chainstate"
	"github.com/kaspanet/chainstated/domain/mempool"
	"github.com/kaspanet/chainstated/domain/mining"
	"github.com/kaspanet/chainstated/infrastructure/db/database/ldb"
	"github.com/pkg/errors"
)

const blocksDirName = "blocks"

// Config holds the settings the domain is created with.
type Config struct {
	DataDir string
	Params  *chainparams.Params

	CoinCacheSize          int
	DBCacheSizeMiB         int
	MaxMempoolTransactions int

	// StopAtHeight, if positive, makes OnStopAtHeight get called once the
	// active tip reaches it.
	StopAtHeight   int32
	OnStopAtHeight func()

	// OnFatalError is called when the node must shut down. It must not
	// block.
	OnFatalError func(err error)
}

// Domain provides a reference to the domain's external apis
type Domain interface {
	Params() *chainparams.Params
	BlockIndex() *blockindex.BlockIndex
	ChainstateManager() *chainstate.Manager
	Mempool() *mempool.Mempool
	GenerateBlocks(count int, payToScript []byte) ([]*chainhash.Hash, error)
	Start() error
	Close() error
}

type domain struct {
	params            *chainparams.Params
	blocksDB          *ldb.LevelDB
	blockIndex        *blockindex.BlockIndex
	chainstateManager *chainstate.Manager
	mempool           *mempool.Mempool
	blockTemplateGen  *mining.BlkTmplGenerator
}

func (d *domain) Params() *chainparams.Params {
	return d.params
}

func (d *domain) BlockIndex() *blockindex.BlockIndex {
	return d.blockIndex
}

func (d *domain) ChainstateManager() *chainstate.Manager {
	return d.chainstateManager
}

func (d *domain) Mempool() *mempool.Mempool {
	return d.mempool
}

// GenerateBlocks mines count blocks on top of the active tip, including
// the mempool's transactions, and processes them.
func (d *domain) GenerateBlocks(count int, payToScript []byte) ([]*chainhash.Hash, error) {
	hashes := make([]*chainhash.Hash, 0, count)
	for i := 0; i < count; i++ {
		tip := d.chainstateManager.ActiveTip()
		parent, ok := d.blockIndex.LookupNode(&tip.Hash)
		if !ok {
			return nil, errors.Errorf("the active tip %s is not in the block index", tip)
		}
		template, err := d.blockTemplateGen.NewBlockTemplate(&parent.Header, tip.Height, payToScript)
		if err != nil {
			return nil, err
		}
		err = d.chainstateManager.ProcessBlock(template.Block)
		if err != nil {
			return nil, err
		}
		hash := template.Block.BlockHash()
		hashes = append(hashes, &hash)
	}
	return hashes, nil
}

func (d *domain) Start() error {
	return d.chainstateManager.Start()
}

func (d *domain) Close() error {
	err := d.chainstateManager.Stop()
	if err != nil {
		d.blocksDB.Close()
		return err
	}
	return d.blocksDB.Close()
}

// New instantiates a new instance of a Domain object
func New(cfg *Config) (Domain, error) {
	blocksDB, err := ldb.NewLevelDB(filepath.Join(cfg.DataDir, blocksDirName), cfg.DBCacheSizeMiB)
	if err != nil {
		return nil, err
	}
	blockIndex, err := blockindex.New(blocksDB, cfg.Params)
	if err != nil {
		blocksDB.Close()
		return nil, err
	}

	engine := blockvalidation.New(cfg.Params)
	chainstateManager, err := chainstate.New(&chainstate.Config{
		DataDir:        cfg.DataDir,
		Params:         cfg.Params,
		CoinCacheSize:  cfg.CoinCacheSize,
		DBCacheSizeMiB: cfg.DBCacheSizeMiB,
		OnFatalError:   cfg.OnFatalError,
	}, blockIndex, engine)
	if err != nil {
		blocksDB.Close()
		return nil, err
	}

	txPool := mempool.New(&mempool.Config{MaxTransactions: cfg.MaxMempoolTransactions}, engine, chainstateManager)
	chainstateManager.SetMempool(txPool)
	chainstateManager.RegisterBlockConnectedHandler(func(block *wire.MsgBlock, _ int32, isBackground bool) {
		if !isBackground {
			txPool.HandleBlockConnected(block)
		}
	})
	if cfg.StopAtHeight > 0 && cfg.OnStopAtHeight != nil {
		chainstateManager.RegisterBlockConnectedHandler(func(_ *wire.MsgBlock, height int32, _ bool) {
			if height >= cfg.StopAtHeight {
				log.Infof("Reached the stop height %d", cfg.StopAtHeight)
				cfg.OnStopAtHeight()
			}
		})
	}

	return &domain{
		params:            cfg.Params,
		blocksDB:          blocksDB,
		blockIndex:        blockIndex,
		chainstateManager: chainstateManager,
		mempool:           txPool,
		blockTemplateGen:  mining.NewBlkTmplGenerator(cfg.Params, txPool),
	}, nil
}
