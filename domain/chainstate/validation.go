package chainstate

import (
	"context"
	"os"

	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/backgroundvalidator"
	"github.com/kaspanet/chainstated/infrastructure/logger"
	"github.com/pkg/errors"
)

// backgroundChainstate is the normal chainstate as background validation
// sees it.
type backgroundChainstate struct {
	*Chainstate
	manager *Manager
}

func (cs backgroundChainstate) ConnectBlock(block *wire.MsgBlock, height int32) error {
	err := cs.Chainstate.ConnectBlock(block, height)
	if err != nil {
		return err
	}
	cs.manager.notifyBlockConnected(block, height, true)
	return nil
}

func (m *Manager) validationTarget(snapshot *Chainstate) (*backgroundvalidator.Target, error) {
	assumeUTXO, ok := m.cfg.Params.AssumeUTXOForBlockHash(snapshot.fromSnapshotBlockHash)
	if !ok {
		return nil, errors.WithStack(&UnknownSnapshotChainstateError{BaseHash: *snapshot.fromSnapshotBlockHash})
	}
	commitment, err := snapshot.baseCommitment()
	if err != nil {
		return nil, err
	}
	return &backgroundvalidator.Target{
		BaseHeight:  assumeUTXO.Height,
		BaseHash:    assumeUTXO.BlockHash,
		ContentHash: assumeUTXO.ContentHash,
		Commitment:  *commitment,
		CoinsCount:  assumeUTXO.CoinsCount,
	}, nil
}

func (m *Manager) startBackgroundValidation(snapshot *Chainstate) error {
	target, err := m.validationTarget(snapshot)
	if err != nil {
		return err
	}

	m.validationMtx.Lock()
	defer m.validationMtx.Unlock()
	if m.validationDone != nil {
		select {
		case <-m.validationDone:
		default:
			return errors.New("background validation is already running")
		}
	}

	m.mtx.RLock()
	normal := m.normal
	m.mtx.RUnlock()
	validator := backgroundvalidator.New(backgroundChainstate{Chainstate: normal, manager: m}, m.blockIndex, target)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancelValidation = cancel
	m.validationDone = done
	spawn("Manager.backgroundValidation", func() {
		defer close(done)
		_, err := validator.Run(ctx)
		m.handleValidationResult(snapshot, err)
	})
	return nil
}

func (m *Manager) stopBackgroundValidation() {
	m.validationMtx.Lock()
	cancel := m.cancelValidation
	done := m.validationDone
	m.validationMtx.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// WaitForBackgroundValidation blocks until the running background
// validation ends, if any.
func (m *Manager) WaitForBackgroundValidation() {
	m.validationMtx.Lock()
	done := m.validationDone
	m.validationMtx.Unlock()
	if done != nil {
		<-done
	}
}

func (m *Manager) handleValidationResult(snapshot *Chainstate, err error) {
	if err == nil {
		err = m.completeValidation(snapshot)
		if err == nil {
			return
		}
	}

	var mismatchErr *backgroundvalidator.FatalValidationMismatchError
	switch {
	case errors.Is(err, context.Canceled):
		log.Infof("Background validation stopped")
	case errors.As(err, &mismatchErr):
		log.Criticalf("%s", err)
		invalidateErr := m.invalidateSnapshot(snapshot)
		if invalidateErr != nil {
			log.Errorf("Failed to invalidate the snapshot chainstate: %s", invalidateErr)
		}
		m.reportFatalError(err)
	default:
		log.Errorf("Background validation failed: %+v", err)
		m.reportFatalError(err)
	}
}

// completeValidation persists that snapshot passed validation and merges
// the chainstates.
func (m *Manager) completeValidation(snapshot *Chainstate) error {
	err := writeValidatedMarker(snapshot.dir)
	if err != nil {
		return err
	}
	m.mtx.Lock()
	snapshot.validated = true
	m.mtx.Unlock()
	log.Infof("The snapshot chainstate based on %s is validated", snapshot.fromSnapshotBlockHash)
	return m.collapse(snapshot)
}

// collapse replaces the normal chainstate with the validated snapshot
// chainstate. Every step can be redone by recoverDirectories after a crash.
func (m *Manager) collapse(snapshot *Chainstate) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "Manager.collapse")
	defer onEnd()

	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.snapshot != snapshot {
		return errors.New("the chainstate to merge is not the snapshot chainstate")
	}

	err := m.normal.close()
	if err != nil {
		return err
	}
	err = snapshot.close()
	if err != nil {
		return err
	}

	normalDir := m.dir(normalDirName)
	toDeleteDir := m.dir(toDeleteDirName)
	err = os.Rename(normalDir, toDeleteDir)
	if err != nil {
		return errors.WithStack(err)
	}
	err = os.Rename(snapshot.dir, normalDir)
	if err != nil {
		return errors.WithStack(err)
	}
	err = os.RemoveAll(toDeleteDir)
	if err != nil {
		return errors.WithStack(err)
	}
	err = removeValidatedMarker(normalDir)
	if err != nil {
		return err
	}

	normal, err := openChainstate(RoleNormal, normalDir, m.cfg, m.engine)
	if err != nil {
		return err
	}
	m.normal = normal
	m.snapshot = nil
	log.Infof("The snapshot chainstate replaced the normal chainstate, tip %s", normal.Tip())
	return nil
}

// invalidateSnapshot moves the snapshot chainstate aside, making the
// normal chainstate active again.
func (m *Manager) invalidateSnapshot(snapshot *Chainstate) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.snapshot != snapshot {
		return nil
	}
	m.snapshot = nil

	err := snapshot.close()
	if err != nil {
		return err
	}
	invalidDir := m.dir(invalidDirName)
	err = os.RemoveAll(invalidDir)
	if err != nil {
		return errors.WithStack(err)
	}
	err = os.Rename(snapshot.dir, invalidDir)
	if err != nil {
		return errors.WithStack(err)
	}
	log.Criticalf("The snapshot chainstate was moved to %s and won't be used", invalidDir)
	return nil
}
