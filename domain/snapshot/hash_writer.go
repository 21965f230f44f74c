package snapshot

import (
	"hash"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// contentHashDomain is the blake2b key that domain-separates snapshot
// content hashes from other hashes.
var contentHashDomain = []byte("TxOutSetContentHash")

// HashWriter is used to incrementally hash coin records without
// concatenating them into a single buffer. It exposes an io.Writer API and a
// Finalize function that returns the resulting content hash.
type HashWriter struct {
	hash.Hash
}

// NewContentHashWriter returns a HashWriter for snapshot content hashes.
func NewContentHashWriter() *HashWriter {
	blake, err := blake2b.New256(contentHashDomain)
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", contentHashDomain))
	}
	return &HashWriter{blake}
}

// InfallibleWrite is just like Write but doesn't return anything.
func (h *HashWriter) InfallibleWrite(p []byte) {
	// hash.Hash promises never to return an error.
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting hash.
func (h *HashWriter) Finalize() *chainhash.Hash {
	var sum chainhash.Hash
	copy(sum[:], h.Sum(sum[:0]))
	return &sum
}
