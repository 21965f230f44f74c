package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kaspanet/chainstated/infrastructure/network/rpcclient"
	"github.com/pkg/errors"
)

type commandDescription struct {
	name               string
	parameters         []string
	optionalParameters []string
	run                func(client *rpcclient.RPCClient, parameters []string) (interface{}, error)
}

var commandDescriptions = []*commandDescription{
	{
		name:       "dumptxoutset",
		parameters: []string{"path"},
		run: func(client *rpcclient.RPCClient, parameters []string) (interface{}, error) {
			return client.DumpTxOutSet(parameters[0])
		},
	},
	{
		name:       "loadtxoutset",
		parameters: []string{"path"},
		run: func(client *rpcclient.RPCClient, parameters []string) (interface{}, error) {
			return client.LoadTxOutSet(parameters[0])
		},
	},
	{
		name: "getchainstates",
		run: func(client *rpcclient.RPCClient, _ []string) (interface{}, error) {
			return client.GetChainStates()
		},
	},
	{
		name: "getblockchaininfo",
		run: func(client *rpcclient.RPCClient, _ []string) (interface{}, error) {
			return client.GetBlockchainInfo()
		},
	},
	{
		name:       "getblockhash",
		parameters: []string{"height"},
		run: func(client *rpcclient.RPCClient, parameters []string) (interface{}, error) {
			height, err := strconv.ParseInt(parameters[0], 10, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid height %s", parameters[0])
			}
			return client.GetBlockHash(int32(height))
		},
	},
	{
		name:       "getblock",
		parameters: []string{"hash"},
		run: func(client *rpcclient.RPCClient, parameters []string) (interface{}, error) {
			return client.GetBlock(parameters[0])
		},
	},
	{
		name:       "submitheader",
		parameters: []string{"hexdata"},
		run: func(client *rpcclient.RPCClient, parameters []string) (interface{}, error) {
			return client.SubmitHeader(parameters[0])
		},
	},
	{
		name:       "submitblock",
		parameters: []string{"hexdata"},
		run: func(client *rpcclient.RPCClient, parameters []string) (interface{}, error) {
			return client.SubmitBlock(parameters[0])
		},
	},
	{
		name:               "gettxout",
		parameters:         []string{"txid", "n"},
		optionalParameters: []string{"include_mempool"},
		run: func(client *rpcclient.RPCClient, parameters []string) (interface{}, error) {
			index, err := strconv.ParseUint(parameters[1], 10, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid output index %s", parameters[1])
			}
			includeMempool := true
			if len(parameters) > 2 {
				includeMempool, err = strconv.ParseBool(parameters[2])
				if err != nil {
					return nil, errors.Wrapf(err, "invalid include_mempool %s", parameters[2])
				}
			}
			return client.GetTxOut(parameters[0], uint32(index), includeMempool)
		},
	},
	{
		name:       "sendrawtransaction",
		parameters: []string{"hexstring"},
		run: func(client *rpcclient.RPCClient, parameters []string) (interface{}, error) {
			return client.SendRawTransaction(parameters[0])
		},
	},
	{
		name: "getrawmempool",
		run: func(client *rpcclient.RPCClient, _ []string) (interface{}, error) {
			return client.GetRawMempool()
		},
	},
	{
		name:               "generate",
		parameters:         []string{"nblocks"},
		optionalParameters: []string{"script"},
		run: func(client *rpcclient.RPCClient, parameters []string) (interface{}, error) {
			numBlocks, err := strconv.ParseUint(parameters[0], 10, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid nblocks %s", parameters[0])
			}
			var payToScriptHex string
			if len(parameters) > 1 {
				payToScriptHex = parameters[1]
			}
			return client.Generate(uint32(numBlocks), payToScriptHex)
		},
	},
	{
		name: "stop",
		run: func(client *rpcclient.RPCClient, _ []string) (interface{}, error) {
			return client.Stop()
		},
	},
}

func findCommand(name string) (*commandDescription, bool) {
	for _, command := range commandDescriptions {
		if command.name == strings.ToLower(name) {
			return command, true
		}
	}
	return nil, false
}

func (cd *commandDescription) checkParameters(parameters []string) error {
	maxParameters := len(cd.parameters) + len(cd.optionalParameters)
	if len(parameters) < len(cd.parameters) || len(parameters) > maxParameters {
		return errors.Errorf("wrong number of parameters. Usage: %s", cd.help())
	}
	return nil
}

func (cd *commandDescription) help() string {
	sb := &strings.Builder{}
	sb.WriteString(cd.name)
	for _, parameter := range cd.parameters {
		_, _ = fmt.Fprintf(sb, " [%s]", parameter)
	}
	for _, parameter := range cd.optionalParameters {
		_, _ = fmt.Fprintf(sb, " ([%s])", parameter)
	}
	return sb.String()
}
