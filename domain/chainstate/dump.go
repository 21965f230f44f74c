package chainstate

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kaspanet/chainstated/domain/snapshot"
	"github.com/kaspanet/chainstated/infrastructure/logger"
	"github.com/pkg/errors"
)

// incompleteSuffix is appended to the path of a snapshot while it's being
// written.
const incompleteSuffix = ".incomplete"

// DumpResult describes a written snapshot.
type DumpResult struct {
	CoinsWritten  uint64
	BaseHash      chainhash.Hash
	BaseHeight    int32
	Path          string
	ContentHash   chainhash.Hash
	ChainTxCount  uint64
	FormatVersion uint16
}

// DumpSnapshot writes the coins of the active chainstate at its tip to a
// snapshot file at path. A relative path is taken relative to the data
// directory. The file is written under a temporary name and renamed when
// complete. An existing file is never overwritten.
func (m *Manager) DumpSnapshot(path string) (*DumpResult, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "Manager.DumpSnapshot")
	defer onEnd()

	if !filepath.IsAbs(path) {
		path = filepath.Join(m.cfg.DataDir, path)
	}
	exists, err := pathExists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Errorf("%s already exists. If you are sure this is what you want, "+
			"move it out of the way first.", path)
	}

	tempPath := path + incompleteSuffix
	file, err := os.Create(tempPath)
	if err != nil {
		return nil, errors.Errorf("Couldn't open file %s for writing.", tempPath)
	}
	result, err := m.writeSnapshot(file)
	closeErr := file.Close()
	if err == nil && closeErr != nil {
		err = errors.WithStack(closeErr)
	}
	if err != nil {
		removeErr := os.Remove(tempPath)
		if removeErr != nil {
			log.Warnf("Failed to remove %s: %s", tempPath, removeErr)
		}
		return nil, err
	}
	err = os.Rename(tempPath, path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	result.Path = path
	log.Infof("Wrote a snapshot of %d coins at %s (height %d) to %s",
		result.CoinsWritten, result.BaseHash, result.BaseHeight, path)
	return result, nil
}

func (m *Manager) writeSnapshot(file *os.File) (*DumpResult, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	iterator, err := m.activeChainstate().coins.OpenIterator()
	if err != nil {
		return nil, err
	}
	defer iterator.Close()
	tip := iterator.Tip()
	metadata := &snapshot.Metadata{BaseBlockHash: tip.Hash, CoinsCount: iterator.Count()}

	buffered := bufio.NewWriter(file)
	contentHash, err := snapshot.Encode(buffered, metadata, iterator)
	if err != nil {
		return nil, err
	}
	err = buffered.Flush()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	err = file.Sync()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var chainTxCount uint64
	if node, ok := m.blockIndex.LookupNode(&tip.Hash); ok {
		chainTxCount = node.ChainTxCount
	}
	return &DumpResult{
		CoinsWritten:  metadata.CoinsCount,
		BaseHash:      tip.Hash,
		BaseHeight:    tip.Height,
		ContentHash:   *contentHash,
		ChainTxCount:  chainTxCount,
		FormatVersion: snapshot.FormatVersion,
	}, nil
}
