package chainstate

import (
	"os"

	"github.com/kaspanet/chainstated/domain/coinstore"
	"github.com/pkg/errors"
)

// recoverDirectories finishes a merge of the chainstates that was
// interrupted after its first rename.
func (m *Manager) recoverDirectories() error {
	normalDir := m.dir(normalDirName)
	snapshotDir := m.dir(snapshotDirName)
	toDeleteDir := m.dir(toDeleteDirName)

	toDeleteExists, err := pathExists(toDeleteDir)
	if err != nil {
		return err
	}
	if toDeleteExists {
		normalExists, err := pathExists(normalDir)
		if err != nil {
			return err
		}
		snapshotExists, err := pathExists(snapshotDir)
		if err != nil {
			return err
		}
		if !normalExists && snapshotExists {
			log.Infof("Completing an interrupted merge: moving %s to %s", snapshotDir, normalDir)
			err := os.Rename(snapshotDir, normalDir)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		log.Infof("Removing the replaced chainstate %s", toDeleteDir)
		err = os.RemoveAll(toDeleteDir)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	// The merge's last step clears the validated marker from what is now
	// the normal chainstate.
	return removeValidatedMarker(normalDir)
}

func (m *Manager) openNormalChainstate() (*Chainstate, error) {
	normal, err := openChainstate(RoleNormal, m.dir(normalDirName), m.cfg, m.engine)
	if err != nil {
		return nil, err
	}
	if normal.Tip() == nil {
		// The genesis coinbase isn't spendable, so an empty set is the
		// state at the genesis block.
		err := normal.coins.Flush(&coinstore.Tip{Hash: *m.cfg.Params.GenesisHash, Height: 0})
		if err != nil {
			normal.close()
			return nil, err
		}
	}
	return normal, nil
}

// openSnapshotChainstate opens the snapshot chainstate if there's one.
// A snapshot directory left by an interrupted load is removed.
func (m *Manager) openSnapshotChainstate() (*Chainstate, error) {
	snapshotDir := m.dir(snapshotDirName)
	exists, err := pathExists(snapshotDir)
	if err != nil || !exists {
		return nil, err
	}

	baseBlockHash, err := readBaseBlockHash(snapshotDir)
	if err != nil {
		return nil, err
	}
	if baseBlockHash == nil {
		log.Warnf("Removing %s, which was left by an interrupted snapshot load", snapshotDir)
		return nil, errors.WithStack(os.RemoveAll(snapshotDir))
	}
	if _, ok := m.cfg.Params.AssumeUTXOForBlockHash(baseBlockHash); !ok {
		return nil, errors.WithStack(&UnknownSnapshotChainstateError{BaseHash: *baseBlockHash})
	}

	snapshot, err := openChainstate(RoleSnapshot, snapshotDir, m.cfg, m.engine)
	if err != nil {
		return nil, err
	}
	isImporting, err := snapshot.coins.IsImporting()
	if err != nil {
		snapshot.close()
		return nil, err
	}
	if isImporting || snapshot.Tip() == nil {
		snapshot.close()
		log.Warnf("Removing %s, which holds a partially imported snapshot", snapshotDir)
		return nil, errors.WithStack(os.RemoveAll(snapshotDir))
	}

	validated, err := hasValidatedMarker(snapshotDir)
	if err != nil {
		snapshot.close()
		return nil, err
	}
	snapshot.validated = validated
	log.Infof("Found the snapshot chainstate based on %s at %s (validated: %t)",
		baseBlockHash, snapshot.Tip(), validated)
	return snapshot, nil
}
