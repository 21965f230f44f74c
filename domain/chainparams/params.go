package chainparams

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Params wraps the consensus parameters of a network together with the
// settings this node needs on top of them.
type Params struct {
	*chaincfg.Params

	// RPCPort is the default port the RPC server listens on.
	RPCPort string

	// AssumeUTXO is the table of snapshot bases this network recognizes.
	// Entries are ordered by height.
	AssumeUTXO []AssumeUTXOData

	// AllowAssumeUTXOOverride is true for networks on which additional
	// AssumeUTXO entries may be supplied at startup.
	AllowAssumeUTXOOverride bool
}

// MainNetParams defines the parameters for the main network.
var MainNetParams = Params{
	Params:  &chaincfg.MainNetParams,
	RPCPort: "8332",
}

// TestNet3Params defines the parameters for the test network (version 3).
var TestNet3Params = Params{
	Params:  &chaincfg.TestNet3Params,
	RPCPort: "18332",
}

// RegressionNetParams defines the parameters for the regression test
// network. Its AssumeUTXO table is filled in at startup, since regression
// test chains are generated locally.
var RegressionNetParams = Params{
	Params:                  &chaincfg.RegressionNetParams,
	RPCPort:                 "18443",
	AllowAssumeUTXOOverride: true,
}

// SimNetParams defines the parameters for the simulation test network.
var SimNetParams = Params{
	Params:                  &chaincfg.SimNetParams,
	RPCPort:                 "18556",
	AllowAssumeUTXOOverride: true,
}

// Clone returns a copy of the params with its own AssumeUTXO table, so the
// table can be extended without affecting the package level values.
func (p *Params) Clone() *Params {
	clone := *p
	clone.AssumeUTXO = make([]AssumeUTXOData, len(p.AssumeUTXO))
	copy(clone.AssumeUTXO, p.AssumeUTXO)
	return &clone
}

func newHashFromStr(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		// Only reachable through an error in a hard-coded hash, so it
		// can only ever panic on init.
		panic(err)
	}
	return hash
}
