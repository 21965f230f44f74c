package testutils

import (
	"testing"

	"github.com/kaspanet/chainstated/domain/chainparams"
)

// ForAllTestNets runs the passed testFunc with every network on which
// AssumeUTXO entries can be added. Each run gets its own copy of the
// params.
func ForAllTestNets(t *testing.T, testFunc func(*testing.T, *chainparams.Params)) {
	allParams := []*chainparams.Params{
		&chainparams.RegressionNetParams,
		&chainparams.SimNetParams,
	}

	for _, params := range allParams {
		params := params.Clone()
		t.Run(params.Name, func(t *testing.T) {
			t.Parallel()
			t.Logf("Running test for %s", params.Name)
			testFunc(t, params)
		})
	}
}
