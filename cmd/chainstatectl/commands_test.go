package main

import (
	"testing"
)

func TestFindCommand(t *testing.T) {
	command, ok := findCommand("LoadTxOutSet")
	if !ok {
		t.Fatalf("findCommand: loadtxoutset was not found")
	}
	if command.name != "loadtxoutset" {
		t.Fatalf("findCommand: expected loadtxoutset but got %s", command.name)
	}
	if _, ok := findCommand("getpeerinfo"); ok {
		t.Fatalf("findCommand: unexpectedly found getpeerinfo")
	}
}

func TestCheckParameters(t *testing.T) {
	command, _ := findCommand("gettxout")
	tests := []struct {
		parameters  []string
		expectError bool
	}{
		{parameters: []string{"aa"}, expectError: true},
		{parameters: []string{"aa", "0"}, expectError: false},
		{parameters: []string{"aa", "0", "false"}, expectError: false},
		{parameters: []string{"aa", "0", "false", "x"}, expectError: true},
	}
	for _, test := range tests {
		err := command.checkParameters(test.parameters)
		if (err != nil) != test.expectError {
			t.Errorf("checkParameters(%v): expected error %t but got %v",
				test.parameters, test.expectError, err)
		}
	}

	if help := command.help(); help != "gettxout [txid] [n] ([include_mempool])" {
		t.Errorf("help: unexpected %q", help)
	}
}
