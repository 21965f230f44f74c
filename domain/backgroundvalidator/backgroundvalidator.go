package backgroundvalidator

import (
	"context"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/blockvalidation"
	"github.com/kaspanet/chainstated/domain/coinstore"
	"github.com/kaspanet/chainstated/domain/snapshot"
	"github.com/kaspanet/chainstated/infrastructure/logger"
	"github.com/pkg/errors"
)

// Chainstate is the chainstate the validator replays blocks into.
type Chainstate interface {
	Tip() *coinstore.Tip
	ConnectBlock(block *wire.MsgBlock, height int32) error
	Coins() *coinstore.CoinStore
}

// BlockSource provides the block bodies to replay.
type BlockSource interface {
	BlockAtHeight(height int32) (block *wire.MsgBlock, found bool, err error)

	// BlockAdded returns a channel that's closed the next time a block
	// body becomes available.
	BlockAdded() <-chan struct{}
}

// Target describes the snapshot the replayed chain must arrive at.
type Target struct {
	BaseHeight int32
	BaseHash   chainhash.Hash

	// ContentHash is the pinned hash of the serialized coin set.
	ContentHash chainhash.Hash

	// Commitment is the MuHash of the snapshot's coins at load time.
	Commitment chainhash.Hash

	// CoinsCount is the pinned number of coins at the base.
	CoinsCount uint64
}

// Result describes a successful validation run.
type Result struct {
	// StartHeight is the height of the chainstate's tip when the run
	// started.
	StartHeight     int32
	BlocksConnected int
	ContentHash     *chainhash.Hash
}

// Validator replays the chain from the chainstate's tip up to the
// snapshot base and then checks that the result matches the snapshot.
type Validator struct {
	chainstate Chainstate
	blocks     BlockSource
	target     *Target
}

// New creates a validator for the given target.
func New(chainstate Chainstate, blocks BlockSource, target *Target) *Validator {
	return &Validator{
		chainstate: chainstate,
		blocks:     blocks,
		target:     target,
	}
}

// Run connects blocks until the chainstate reaches the base height,
// waiting for block bodies that aren't available yet. Every block is
// flushed as it's connected, so a run that's interrupted continues from
// where it stopped.
//
// Run returns ctx.Err() if ctx is canceled, and a
// *FatalValidationMismatchError if the chain doesn't match the snapshot.
func (v *Validator) Run(ctx context.Context) (*Result, error) {
	tip := v.chainstate.Tip()
	if tip == nil {
		return nil, errors.New("the chainstate to validate has no tip")
	}
	result := &Result{StartHeight: tip.Height}
	log.Infof("Starting background validation from height %d to the snapshot base %s (height %d)",
		tip.Height, v.target.BaseHash, v.target.BaseHeight)

	for tip.Height < v.target.BaseHeight {
		if err := ctx.Err(); err != nil {
			log.Infof("Background validation interrupted at height %d", tip.Height)
			return nil, err
		}

		height := tip.Height + 1
		blockAdded := v.blocks.BlockAdded()
		block, found, err := v.blocks.BlockAtHeight(height)
		if err != nil {
			return nil, err
		}
		if !found {
			log.Debugf("Waiting for the block at height %d", height)
			select {
			case <-ctx.Done():
				log.Infof("Background validation interrupted at height %d", tip.Height)
				return nil, ctx.Err()
			case <-blockAdded:
			}
			continue
		}

		if height == v.target.BaseHeight && block.BlockHash() != v.target.BaseHash {
			return nil, newMismatchError(v.target, "block %s at the base height is not the "+
				"snapshot base", block.BlockHash())
		}
		err = v.chainstate.ConnectBlock(block, height)
		if err != nil {
			var ruleErr blockvalidation.RuleError
			if errors.As(err, &ruleErr) {
				return nil, newMismatchError(v.target, "block %s at height %d is invalid: %s",
					block.BlockHash(), height, err)
			}
			return nil, err
		}
		result.BlocksConnected++
		tip = v.chainstate.Tip()
		if tip.Height%1000 == 0 {
			log.Infof("Background validation reached height %d", tip.Height)
		}
	}

	contentHash, err := v.verify(tip)
	if err != nil {
		return nil, err
	}
	result.ContentHash = contentHash
	log.Infof("Background validation of the snapshot based on %s finished: connected %d blocks",
		v.target.BaseHash, result.BlocksConnected)
	return result, nil
}

// verify compares the chainstate at the base against the snapshot.
func (v *Validator) verify(tip *coinstore.Tip) (*chainhash.Hash, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "Validator.verify")
	defer onEnd()

	if tip.Height != v.target.BaseHeight || tip.Hash != v.target.BaseHash {
		return nil, newMismatchError(v.target, "the validated chain ended at %s", tip)
	}

	iterator, err := v.chainstate.Coins().OpenIterator()
	if err != nil {
		return nil, err
	}
	defer iterator.Close()

	if iterator.Count() != v.target.CoinsCount {
		return nil, newMismatchError(v.target, "expected %d coins, got %d",
			v.target.CoinsCount, iterator.Count())
	}
	if *iterator.Commitment() != v.target.Commitment {
		return nil, newMismatchError(v.target, "expected UTXO commitment %s, got %s",
			v.target.Commitment, iterator.Commitment())
	}

	metadata := &snapshot.Metadata{BaseBlockHash: tip.Hash, CoinsCount: iterator.Count()}
	contentHash, err := snapshot.Encode(io.Discard, metadata, iterator)
	if err != nil {
		return nil, err
	}
	if *contentHash != v.target.ContentHash {
		return nil, newMismatchError(v.target, "expected content hash %s, got %s",
			v.target.ContentHash, contentHash)
	}
	return contentHash, nil
}
