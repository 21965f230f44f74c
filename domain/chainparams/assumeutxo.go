package chainparams

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

// AssumeUTXOData is all the information needed to accept a UTXO snapshot
// whose base is the given block.
type AssumeUTXOData struct {
	// Height is the height of the snapshot base block.
	Height int32

	// BlockHash is the hash of the snapshot base block.
	BlockHash chainhash.Hash

	// ContentHash is the content hash of the serialized coin records.
	ContentHash chainhash.Hash

	// CoinsCount is the number of coins in the UTXO set at the base block.
	CoinsCount uint64

	// ChainTxCount is the number of transactions in the chain up to and
	// including the base block.
	ChainTxCount uint64
}

// AssumeUTXOForBlockHash returns the table entry whose base is blockHash.
func (p *Params) AssumeUTXOForBlockHash(blockHash *chainhash.Hash) (*AssumeUTXOData, bool) {
	for i := range p.AssumeUTXO {
		if p.AssumeUTXO[i].BlockHash == *blockHash {
			data := p.AssumeUTXO[i]
			return &data, true
		}
	}
	return nil, false
}

// AssumeUTXOForHeight returns the table entry whose base is at height.
func (p *Params) AssumeUTXOForHeight(height int32) (*AssumeUTXOData, bool) {
	index := sort.Search(len(p.AssumeUTXO), func(i int) bool {
		return p.AssumeUTXO[i].Height >= height
	})
	if index < len(p.AssumeUTXO) && p.AssumeUTXO[index].Height == height {
		data := p.AssumeUTXO[index]
		return &data, true
	}
	return nil, false
}

// AddAssumeUTXO adds entries to the table. It fails if the network does not
// allow overrides or if an entry conflicts with an existing one.
func (p *Params) AddAssumeUTXO(entries ...AssumeUTXOData) error {
	if !p.AllowAssumeUTXOOverride {
		return errors.Errorf("AssumeUTXO entries cannot be overridden on %s", p.Name)
	}
	for _, entry := range entries {
		for _, existing := range p.AssumeUTXO {
			if existing.Height == entry.Height || existing.BlockHash == entry.BlockHash {
				return errors.Errorf("duplicate AssumeUTXO entry at height %d (%s)",
					entry.Height, entry.BlockHash)
			}
		}
		p.AssumeUTXO = append(p.AssumeUTXO, entry)
	}
	sort.Slice(p.AssumeUTXO, func(i, j int) bool {
		return p.AssumeUTXO[i].Height < p.AssumeUTXO[j].Height
	})
	return nil
}

type assumeUTXOJSON struct {
	Height       int32  `json:"height"`
	BlockHash    string `json:"blockhash"`
	ContentHash  string `json:"txoutset_hash"`
	CoinsCount   uint64 `json:"coins_count"`
	ChainTxCount uint64 `json:"nchaintx"`
}

// ParseAssumeUTXOJSON parses a JSON array of AssumeUTXO entries, using the
// same field names the dumptxoutset result reports.
func ParseAssumeUTXOJSON(data []byte) ([]AssumeUTXOData, error) {
	var parsed []assumeUTXOJSON
	err := json.Unmarshal(data, &parsed)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing AssumeUTXO entries")
	}
	entries := make([]AssumeUTXOData, len(parsed))
	for i, entry := range parsed {
		blockHash, err := chainhash.NewHashFromStr(entry.BlockHash)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d has a malformed blockhash", i)
		}
		contentHash, err := chainhash.NewHashFromStr(entry.ContentHash)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d has a malformed txoutset_hash", i)
		}
		entries[i] = AssumeUTXOData{
			Height:       entry.Height,
			BlockHash:    *blockHash,
			ContentHash:  *contentHash,
			CoinsCount:   entry.CoinsCount,
			ChainTxCount: entry.ChainTxCount,
		}
	}
	return entries, nil
}

// LoadAssumeUTXOFile reads a JSON file of entries and adds them to the table.
func (p *Params) LoadAssumeUTXOFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "error reading %s", path)
	}
	entries, err := ParseAssumeUTXOJSON(data)
	if err != nil {
		return err
	}
	return p.AddAssumeUTXO(entries...)
}
