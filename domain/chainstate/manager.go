package chainstate

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/blockindex"
	"github.com/kaspanet/chainstated/domain/blockvalidation"
	"github.com/kaspanet/chainstated/domain/chainparams"
	"github.com/kaspanet/chainstated/domain/coinstore"
	"github.com/kaspanet/chainstated/domain/utxo"
	"github.com/pkg/errors"
)

// Config holds the settings of a Manager.
type Config struct {
	// DataDir is the network's data directory. Chainstate directories
	// live directly under it.
	DataDir string

	Params *chainparams.Params

	// CoinCacheSize is the number of coins each chainstate caches.
	CoinCacheSize int

	// DBCacheSizeMiB is the leveldb cache size of each chainstate.
	DBCacheSizeMiB int

	// OnFatalError is called when the node can't continue, such as when
	// background validation finds the snapshot to be invalid. It must not
	// block.
	OnFatalError func(err error)
}

// Mempool is the view the manager has of the mempool.
type Mempool interface {
	Count() int
}

// BlockConnectedHandler is called after a block is connected to a
// chainstate. isBackground is set for blocks connected by background
// validation rather than to the active chainstate.
type BlockConnectedHandler func(block *wire.MsgBlock, height int32, isBackground bool)

// State is the stage of the snapshot bootstrap the node is in.
type State int

const (
	// StateNormal means there's a single chainstate, validated from
	// genesis.
	StateNormal State = iota

	// StateSnapshotUnvalidated means a snapshot chainstate is active and
	// the normal one is being validated up to its base in the background.
	StateSnapshotUnvalidated

	// StateSnapshotValidated means background validation succeeded and
	// the chainstates are about to be merged.
	StateSnapshotValidated

	// StateSnapshotBecameNormal means the validated snapshot chainstate
	// replaced the normal one.
	StateSnapshotBecameNormal
)

var stateStrings = map[State]string{
	StateNormal:               "Normal",
	StateSnapshotUnvalidated:  "SnapshotUnvalidated",
	StateSnapshotValidated:    "SnapshotValidated",
	StateSnapshotBecameNormal: "SnapshotBecameNormal",
}

func (s State) String() string {
	return stateStrings[s]
}

// Info describes a chainstate.
type Info struct {
	Role              Role
	Blocks            int32
	BestBlockHash     chainhash.Hash
	Validated         bool
	SnapshotBlockHash *chainhash.Hash
	Coins             uint64
}

// Manager owns the normal chainstate and, while a snapshot is being
// validated, the snapshot chainstate. Coin queries and new blocks go to
// the active chainstate, which is the snapshot one if it exists.
type Manager struct {
	cfg        *Config
	blockIndex *blockindex.BlockIndex
	engine     *blockvalidation.Engine
	mempool    Mempool

	mtx      sync.RWMutex
	normal   *Chainstate
	snapshot *Chainstate
	loading  bool

	// processMtx serializes connecting blocks to the active chainstate.
	processMtx sync.Mutex

	handlersMtx            sync.RWMutex
	blockConnectedHandlers []BlockConnectedHandler

	validationMtx    sync.Mutex
	cancelValidation context.CancelFunc
	validationDone   chan struct{}
}

// New opens the chainstates in cfg.DataDir, first recovering from any
// operation a previous run didn't complete.
func New(cfg *Config, blockIndex *blockindex.BlockIndex, engine *blockvalidation.Engine) (*Manager, error) {
	m := &Manager{
		cfg:        cfg,
		blockIndex: blockIndex,
		engine:     engine,
	}

	err := m.recoverDirectories()
	if err != nil {
		return nil, err
	}
	normal, err := m.openNormalChainstate()
	if err != nil {
		return nil, err
	}
	m.normal = normal

	snapshot, err := m.openSnapshotChainstate()
	if err != nil {
		normal.close()
		return nil, err
	}
	m.snapshot = snapshot
	if snapshot != nil && snapshot.validated {
		log.Infof("Found a validated snapshot chainstate, completing its merge")
		err := m.collapse(snapshot)
		if err != nil {
			return nil, err
		}
	}

	log.Infof("Chainstates opened in state %s, active tip %s", m.State(), m.ActiveTip())
	return m, nil
}

func (m *Manager) dir(name string) string {
	return filepath.Join(m.cfg.DataDir, name)
}

// SetMempool sets the mempool whose emptiness is required to load a
// snapshot.
func (m *Manager) SetMempool(mempool Mempool) {
	m.mempool = mempool
}

// RegisterBlockConnectedHandler registers handler to be called for every
// connected block.
func (m *Manager) RegisterBlockConnectedHandler(handler BlockConnectedHandler) {
	m.handlersMtx.Lock()
	defer m.handlersMtx.Unlock()
	m.blockConnectedHandlers = append(m.blockConnectedHandlers, handler)
}

// Start starts background validation if there's an unvalidated snapshot
// chainstate.
func (m *Manager) Start() error {
	m.mtx.RLock()
	snapshot := m.snapshot
	m.mtx.RUnlock()
	if snapshot == nil || snapshot.validated {
		return nil
	}
	return m.startBackgroundValidation(snapshot)
}

// Stop stops background validation and closes the chainstates.
func (m *Manager) Stop() error {
	m.stopBackgroundValidation()

	m.mtx.Lock()
	defer m.mtx.Unlock()
	var closeErr error
	for _, chainstate := range []*Chainstate{m.normal, m.snapshot} {
		if chainstate == nil {
			continue
		}
		err := chainstate.close()
		if err != nil && closeErr == nil {
			closeErr = err
		}
	}
	m.normal = nil
	m.snapshot = nil
	return closeErr
}

// State returns the stage of the snapshot bootstrap the node is in.
func (m *Manager) State() State {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	switch {
	case m.snapshot != nil && m.snapshot.validated:
		return StateSnapshotValidated
	case m.snapshot != nil:
		return StateSnapshotUnvalidated
	case m.normal.fromSnapshotBlockHash != nil:
		return StateSnapshotBecameNormal
	default:
		return StateNormal
	}
}

func (m *Manager) activeChainstate() *Chainstate {
	if m.snapshot != nil {
		return m.snapshot
	}
	return m.normal
}

// ActiveTip returns the tip of the active chainstate.
func (m *Manager) ActiveTip() *coinstore.Tip {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.activeChainstate().Tip()
}

// TipHeight returns the height of the active chainstate's tip.
func (m *Manager) TipHeight() int32 {
	return m.ActiveTip().Height
}

// ChainstateForHeight returns the role of the chainstate responsible for
// the block at height: the snapshot chainstate from its base onward, the
// normal chainstate below it.
func (m *Manager) ChainstateForHeight(height int32) Role {
	role, _ := m.ChainstateTipForHeight(height)
	return role
}

// ChainstateTipForHeight is like ChainstateForHeight, but also returns the
// tip of that chainstate. The block at height was connected to it only if
// height is not above the tip.
func (m *Manager) ChainstateTipForHeight(height int32) (Role, *coinstore.Tip) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	if m.snapshot != nil && height >= m.snapshotBaseHeight() {
		return RoleSnapshot, m.snapshot.Tip()
	}
	return RoleNormal, m.normal.Tip()
}

// snapshotBaseHeight must be called with a snapshot chainstate present.
func (m *Manager) snapshotBaseHeight() int32 {
	assumeUTXO, _ := m.cfg.Params.AssumeUTXOForBlockHash(m.snapshot.fromSnapshotBlockHash)
	return assumeUTXO.Height
}

// GetCoin returns the coin at outpoint in the active chainstate.
func (m *Manager) GetCoin(outpoint *wire.OutPoint) (*utxo.Entry, bool, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.activeChainstate().coins.Get(outpoint)
}

// Chainstates describes the existing chainstates, the normal one first.
func (m *Manager) Chainstates() []*Info {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	infos := []*Info{chainstateInfo(m.normal)}
	if m.snapshot != nil {
		infos = append(infos, chainstateInfo(m.snapshot))
	}
	return infos
}

func chainstateInfo(chainstate *Chainstate) *Info {
	tip := chainstate.Tip()
	return &Info{
		Role:              chainstate.role,
		Blocks:            tip.Height,
		BestBlockHash:     tip.Hash,
		Validated:         chainstate.validated,
		SnapshotBlockHash: chainstate.fromSnapshotBlockHash,
		Coins:             chainstate.coins.Count(),
	}
}

// ProcessHeader adds header to the header chain.
func (m *Manager) ProcessHeader(header *wire.BlockHeader) (*blockindex.Node, error) {
	return m.blockIndex.AddHeader(header)
}

// ProcessBlock stores block and connects to the active chainstate every
// stored block that extends it. Blocks below the base of an unvalidated
// snapshot are only stored, for background validation to pick them up.
func (m *Manager) ProcessBlock(block *wire.MsgBlock) error {
	err := m.engine.CheckBlockSanity(block)
	if err != nil {
		return err
	}
	_, err = m.blockIndex.AddBlock(block)
	if err != nil {
		return err
	}
	return m.connectAvailableBlocks()
}

type connectedBlock struct {
	block  *wire.MsgBlock
	height int32
}

func (m *Manager) connectAvailableBlocks() error {
	m.processMtx.Lock()
	defer m.processMtx.Unlock()

	connected, err := m.connectToActive()
	for _, c := range connected {
		m.notifyBlockConnected(c.block, c.height, false)
	}
	return err
}

func (m *Manager) notifyBlockConnected(block *wire.MsgBlock, height int32, isBackground bool) {
	m.handlersMtx.RLock()
	handlers := m.blockConnectedHandlers
	m.handlersMtx.RUnlock()
	for _, handler := range handlers {
		handler(block, height, isBackground)
	}
}

func (m *Manager) connectToActive() ([]connectedBlock, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	active := m.activeChainstate()
	var connected []connectedBlock
	for {
		height := active.Tip().Height + 1
		block, found, err := m.blockIndex.BlockAtHeight(height)
		if err != nil {
			return connected, err
		}
		if !found {
			return connected, nil
		}
		err = active.ConnectBlock(block, height)
		if err != nil {
			var ruleErr blockvalidation.RuleError
			if errors.As(err, &ruleErr) {
				blockHash := block.BlockHash()
				log.Warnf("Block %s at height %d is invalid: %s", blockHash, height, err)
				removeErr := m.blockIndex.RemoveBlock(&blockHash)
				if removeErr != nil {
					return connected, removeErr
				}
			}
			return connected, err
		}
		log.Debugf("Connected block %s at height %d to the %s chainstate",
			block.BlockHash(), height, active.role)
		connected = append(connected, connectedBlock{block: block, height: height})
	}
}

func (m *Manager) reportFatalError(err error) {
	if m.cfg.OnFatalError != nil {
		m.cfg.OnFatalError(err)
	}
}
