package chainstate

import (
	"fmt"
	"os"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kaspanet/chainstated/domain/chainparams"
	"github.com/kaspanet/chainstated/domain/coinstore"
	"github.com/kaspanet/chainstated/domain/snapshot"
	"github.com/kaspanet/chainstated/infrastructure/logger"
	"github.com/pkg/errors"
)

// coinsPerImportBatch is the number of coins staged in memory before they
// are written while loading a snapshot.
const coinsPerImportBatch = 100_000

// LoadResult describes a loaded snapshot.
type LoadResult struct {
	CoinsLoaded uint64
	BaseHash    chainhash.Hash
	BaseHeight  int32
	Path        string
	ContentHash chainhash.Hash
}

func (m *Manager) beginLoading() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.snapshot != nil {
		return errors.WithStack(&AlreadyLoadingError{ExistingBaseHash: m.snapshot.fromSnapshotBlockHash})
	}
	if m.loading {
		return errors.WithStack(&AlreadyLoadingError{})
	}
	m.loading = true
	return nil
}

func (m *Manager) endLoading() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.loading = false
}

// LoadSnapshot loads the snapshot file at path into a new chainstate and
// makes it the active one. Background validation of the snapshot starts
// once it's loaded.
//
// The snapshot's header is checked before any coin is decoded: its base
// block must be in the network's AssumeUTXO table and in the header chain,
// and above the normal chainstate's tip. The mempool must be empty. If
// anything fails, the existing chainstates are left as they were.
func (m *Manager) LoadSnapshot(path string) (*LoadResult, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "Manager.LoadSnapshot")
	defer onEnd()

	err := m.beginLoading()
	if err != nil {
		return nil, err
	}
	defer m.endLoading()

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't open snapshot file %s", path)
	}
	defer file.Close()

	reader, err := snapshot.NewReader(file)
	if err != nil {
		return nil, errors.WithStack(&SnapshotCorruptError{Path: path, Cause: err})
	}
	metadata := reader.Metadata()
	baseHash := metadata.BaseBlockHash
	log.Infof("Loading snapshot %s: %s", path, metadata)

	assumeUTXO, ok := m.cfg.Params.AssumeUTXOForBlockHash(&baseHash)
	if !ok {
		return nil, errors.WithStack(&UnrecognizedSnapshotError{BaseHash: baseHash})
	}
	baseHeight, ok := m.blockIndex.HeaderHeight(&baseHash)
	if !ok {
		return nil, errors.WithStack(&HeadersNotSyncedError{BaseHash: baseHash})
	}
	if baseHeight != assumeUTXO.Height {
		return nil, errors.Errorf("the base block %s is at height %d in the headers chain, "+
			"but at height %d in the AssumeUTXO table", baseHash, baseHeight, assumeUTXO.Height)
	}
	m.mtx.RLock()
	normalTipHeight := m.normal.Tip().Height
	m.mtx.RUnlock()
	if normalTipHeight >= baseHeight {
		return nil, errors.WithStack(&SnapshotBehindTipError{
			BaseHash:   baseHash,
			BaseHeight: baseHeight,
			TipHeight:  normalTipHeight,
		})
	}
	if m.mempool != nil {
		if count := m.mempool.Count(); count > 0 {
			return nil, errors.WithStack(&MempoolNotEmptyError{TransactionCount: count})
		}
	}

	reader.LimitHeight(uint32(baseHeight))
	dir := m.dir(snapshotDirName)
	err = os.RemoveAll(dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	chainstate, contentHash, err := m.populateSnapshotChainstate(dir, path, reader, assumeUTXO)
	if err != nil {
		removeErr := os.RemoveAll(dir)
		if removeErr != nil {
			log.Errorf("Failed to remove %s: %s", dir, removeErr)
		}
		return nil, err
	}

	node, _ := m.blockIndex.LookupNode(&baseHash)
	if node.ChainTxCount == 0 {
		err := m.blockIndex.SetChainTxCount(&baseHash, assumeUTXO.ChainTxCount)
		if err != nil {
			return nil, err
		}
	}

	err = m.registerSnapshot(chainstate, baseHeight)
	if err != nil {
		return nil, err
	}
	log.Infof("The snapshot chainstate based on %s (height %d) with %d coins is now active",
		baseHash, baseHeight, reader.CoinsRead())

	err = m.startBackgroundValidation(chainstate)
	if err != nil {
		return nil, err
	}
	err = m.connectAvailableBlocks()
	if err != nil {
		log.Warnf("Failed connecting stored blocks above the snapshot base: %s", err)
	}

	return &LoadResult{
		CoinsLoaded: reader.CoinsRead(),
		BaseHash:    baseHash,
		BaseHeight:  baseHeight,
		Path:        path,
		ContentHash: *contentHash,
	}, nil
}

// populateSnapshotChainstate creates a chainstate in dir holding the coins
// of reader. Until it returns successfully, dir is marked as an import in
// progress and has no base block hash file, so a crash leaves nothing that
// would be mistaken for a loaded snapshot.
func (m *Manager) populateSnapshotChainstate(dir string, path string, reader *snapshot.Reader,
	assumeUTXO *chainparams.AssumeUTXOData) (*Chainstate, *chainhash.Hash, error) {

	chainstate, err := openChainstate(RoleSnapshot, dir, m.cfg, m.engine)
	if err != nil {
		return nil, nil, err
	}
	success := false
	defer func() {
		if !success {
			chainstate.close()
		}
	}()

	coins := chainstate.coins
	err = coins.BeginImport()
	if err != nil {
		return nil, nil, err
	}
	for reader.Next() {
		outpoint, entry, err := reader.Get()
		if err != nil {
			return nil, nil, errors.WithStack(&SnapshotCorruptError{Path: path, Cause: err})
		}
		err = coins.Insert(outpoint, entry)
		if errors.Is(err, coinstore.ErrCoinExists) {
			return nil, nil, errors.WithStack(&SnapshotCorruptError{Path: path, Cause: errors.Errorf(
				"bad snapshot - duplicate coin %s after deserializing %d coins", outpoint, reader.CoinsRead()-1)})
		}
		if err != nil {
			return nil, nil, err
		}
		if coins.StagedCount() >= coinsPerImportBatch {
			err := coins.FlushImportBatch()
			if err != nil {
				return nil, nil, err
			}
			log.Infof("Loaded %d out of %d coins (%s)", reader.CoinsRead(), reader.Metadata().CoinsCount,
				progress(reader.CoinsRead(), reader.Metadata().CoinsCount))
		}
	}

	contentHash, err := reader.Finish(&assumeUTXO.ContentHash)
	if err != nil {
		return nil, nil, errors.WithStack(&SnapshotCorruptError{Path: path, Cause: err})
	}
	if reader.CoinsRead() != assumeUTXO.CoinsCount {
		return nil, nil, errors.WithStack(&SnapshotCorruptError{Path: path, Cause: errors.Errorf(
			"bad snapshot - coins count mismatch: expected %d, got %d",
			assumeUTXO.CoinsCount, reader.CoinsRead())})
	}

	err = coins.FinishImport(&coinstore.Tip{Hash: assumeUTXO.BlockHash, Height: assumeUTXO.Height})
	if err != nil {
		return nil, nil, err
	}
	err = chainstate.writeBaseCommitment(coins.Commitment())
	if err != nil {
		return nil, nil, err
	}
	err = writeBaseBlockHash(dir, &assumeUTXO.BlockHash)
	if err != nil {
		return nil, nil, err
	}
	baseHash := assumeUTXO.BlockHash
	chainstate.fromSnapshotBlockHash = &baseHash

	success = true
	return chainstate, contentHash, nil
}

// registerSnapshot makes chainstate the active chainstate. Blocks may have
// been connected to the normal chainstate while the coins were loading, so
// its tip is checked again. If it reached the snapshot base, chainstate is
// closed and its directory removed.
func (m *Manager) registerSnapshot(chainstate *Chainstate, baseHeight int32) error {
	m.mtx.Lock()
	normalTipHeight := m.normal.Tip().Height
	if normalTipHeight < baseHeight {
		m.snapshot = chainstate
		m.mtx.Unlock()
		return nil
	}
	m.mtx.Unlock()

	err := chainstate.close()
	if err != nil {
		log.Errorf("Failed to close the %s: %s", chainstate, err)
	}
	err = os.RemoveAll(chainstate.dir)
	if err != nil {
		log.Errorf("Failed to remove %s: %s", chainstate.dir, err)
	}
	return errors.WithStack(&SnapshotBehindTipError{
		BaseHash:   *chainstate.fromSnapshotBlockHash,
		BaseHeight: baseHeight,
		TipHeight:  normalTipHeight,
	})
}

func progress(done, total uint64) string {
	if total == 0 {
		return "100%"
	}
	return fmt.Sprintf("%.2f%%", float64(done)*100/float64(total))
}
