package config

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/kaspanet/chainstated/domain/chainparams"
	"github.com/pkg/errors"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet                bool   `long:"testnet" description:"Use the test network"`
	Regtest                bool   `long:"regtest" description:"Use the regression test network"`
	Simnet                 bool   `long:"simnet" description:"Use the simulation test network"`
	OverrideAssumeUTXOFile string `long:"override-assumeutxo-file" description:"JSON file of AssumeUTXO entries to add to the network's table (allowed only on regtest and simnet)"`

	ActiveNetParams *chainparams.Params
}

// ResolveNetwork parses the network command line argument and sets ActiveNetParams accordingly.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// Default value is main-net.
	activeNetParams := &chainparams.MainNetParams
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		activeNetParams = &chainparams.TestNet3Params
	}
	if networkFlags.Regtest {
		numNets++
		activeNetParams = &chainparams.RegressionNetParams
	}
	if networkFlags.Simnet {
		numNets++
		activeNetParams = &chainparams.SimNetParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, regtest, simnet) cannot be used " +
			"together. Please choose only one network"
		err := errors.New(message)
		if parser != nil {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
		}
		return err
	}

	// The params are cloned so overriding AssumeUTXO entries doesn't
	// leak into the package level values.
	networkFlags.ActiveNetParams = activeNetParams.Clone()
	return networkFlags.overrideAssumeUTXO()
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *chainparams.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideAssumeUTXO() error {
	if networkFlags.OverrideAssumeUTXOFile == "" {
		return nil
	}
	if !networkFlags.ActiveNetParams.AllowAssumeUTXOOverride {
		return errors.Errorf("override-assumeutxo-file is allowed only when using regtest or simnet")
	}
	err := networkFlags.ActiveNetParams.LoadAssumeUTXOFile(networkFlags.OverrideAssumeUTXOFile)
	if err != nil {
		return err
	}
	log.Infof("Loaded %d AssumeUTXO entries from %s", len(networkFlags.ActiveNetParams.AssumeUTXO),
		networkFlags.OverrideAssumeUTXOFile)
	return nil
}
