package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/kaspanet/chainstated/infrastructure/config"
	"github.com/kaspanet/chainstated/infrastructure/network/rpcclient"
)

func main() {
	cfg, err := parseConfig()
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error parsing command-line arguments: %s", err))
	}

	if cfg.ListCommands {
		printAllCommands()
		return
	}

	command, ok := findCommand(cfg.CommandAndParameters[0])
	if !ok {
		printErrorAndExit(fmt.Sprintf("unknown command '%s'. Use --list-commands to list all commands",
			cfg.CommandAndParameters[0]))
	}
	parameters := cfg.CommandAndParameters[1:]
	err = command.checkParameters(parameters)
	if err != nil {
		printErrorAndExit(err.Error())
	}

	rpcAddress, err := config.NormalizeAddress(cfg.RPCServer, cfg.NetParams().RPCPort)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error parsing RPC server address: %s", err))
	}
	client, err := rpcclient.NewRPCClient(rpcAddress)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error connecting to the RPC server: %s", err))
	}
	defer client.Close()
	client.SetTimeout(time.Duration(cfg.Timeout) * time.Second)

	response, err := command.run(client, parameters)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error posting the request to the RPC server: %s", err))
	}
	responseJSON, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error formatting the response: %s", err))
	}
	fmt.Println(string(responseJSON))
}

func printAllCommands() {
	fmt.Println("List of all commands and their parameters:")
	for _, command := range commandDescriptions {
		fmt.Printf("\t%s\n", command.help())
	}
}

func printErrorAndExit(message string) {
	fmt.Fprintln(os.Stderr, message)
	os.Exit(1)
}
