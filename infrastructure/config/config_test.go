package config

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kaspanet/chainstated/domain/chainparams"
)

func TestLoadConfig(t *testing.T) {
	appDir := t.TempDir()
	cfg, err := loadConfigFromArgs([]string{"--appdir", appDir, "--regtest", "--stopatheight", "120"})
	if err != nil {
		t.Fatalf("loadConfigFromArgs unexpectedly failed: %+v", err)
	}

	if cfg.NetParams().Name != chainparams.RegressionNetParams.Name {
		t.Fatalf("expected network %s, got %s", chainparams.RegressionNetParams.Name, cfg.NetParams().Name)
	}
	if cfg.NetParams() == &chainparams.RegressionNetParams {
		t.Fatalf("the active params must be a copy of the network's params")
	}
	expectedDataDir := filepath.Join(appDir, defaultDataDirname, cfg.NetParams().Name)
	if cfg.DataDir != expectedDataDir {
		t.Fatalf("expected data directory %s, got %s", expectedDataDir, cfg.DataDir)
	}
	if cfg.StopAtHeight != 120 {
		t.Fatalf("expected stop height 120, got %d", cfg.StopAtHeight)
	}
	if cfg.CoinCacheSize != defaultCoinCacheSize || cfg.DBCacheSizeMiB != defaultDBCacheSizeMiB {
		t.Fatalf("unexpected cache sizes %d and %d", cfg.CoinCacheSize, cfg.DBCacheSizeMiB)
	}
	expectedRPCListen := net.JoinHostPort(defaultRPCListenHost, chainparams.RegressionNetParams.RPCPort)
	if cfg.RPCListen != expectedRPCListen {
		t.Fatalf("expected the RPC server to listen on %s, got %s", expectedRPCListen, cfg.RPCListen)
	}
}

func TestLoadConfigFile(t *testing.T) {
	appDir := t.TempDir()
	configFile := filepath.Join(appDir, "test.conf")
	err := os.WriteFile(configFile, []byte("regtest=1\nstopatheight=50\ndbcache=16\nrpclisten=127.0.0.1\n"), 0600)
	if err != nil {
		t.Fatalf("WriteFile unexpectedly failed: %s", err)
	}

	cfg, err := loadConfigFromArgs([]string{"--appdir", appDir, "--configfile", configFile, "--stopatheight", "70"})
	if err != nil {
		t.Fatalf("loadConfigFromArgs unexpectedly failed: %+v", err)
	}
	if !cfg.Regtest {
		t.Fatalf("the network from the config file wasn't applied")
	}
	if cfg.DBCacheSizeMiB != 16 {
		t.Fatalf("expected dbcache 16 from the config file, got %d", cfg.DBCacheSizeMiB)
	}
	if cfg.StopAtHeight != 70 {
		t.Fatalf("expected the command line to take precedence, got stop height %d", cfg.StopAtHeight)
	}
	expectedRPCListen := net.JoinHostPort("127.0.0.1", chainparams.RegressionNetParams.RPCPort)
	if cfg.RPCListen != expectedRPCListen {
		t.Fatalf("expected the default port to be added, got %s", cfg.RPCListen)
	}

	_, err = loadConfigFromArgs([]string{"--appdir", appDir, "--configfile", filepath.Join(appDir, "missing.conf")})
	if err == nil {
		t.Fatalf("expected a missing explicit config file to fail")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	appDir := t.TempDir()
	tests := []struct {
		name            string
		args            []string
		expectedMessage string
	}{
		{
			name:            "multiple networks",
			args:            []string{"--regtest", "--simnet"},
			expectedMessage: "Multiple networks parameters",
		},
		{
			name:            "bad debug level",
			args:            []string{"--regtest", "--debuglevel", "loud"},
			expectedMessage: "the specified debug level [loud] is invalid",
		},
		{
			name:            "bad profile port",
			args:            []string{"--regtest", "--profile", "80"},
			expectedMessage: "The profile port must be between",
		},
		{
			name:            "small db cache",
			args:            []string{"--regtest", "--dbcache", "1"},
			expectedMessage: "The dbcache option may not be less than",
		},
		{
			name:            "negative stop height",
			args:            []string{"--regtest", "--stopatheight=-1"},
			expectedMessage: "The stopatheight option may not be negative",
		},
	}

	for _, test := range tests {
		args := append([]string{"--appdir", appDir}, test.args...)
		_, err := loadConfigFromArgs(args)
		if err == nil {
			t.Fatalf("%s: expected an error", test.name)
		}
		if !strings.Contains(err.Error(), test.expectedMessage) {
			t.Fatalf("%s: expected message %q, got %q", test.name, test.expectedMessage, err)
		}
	}
}

func TestOverrideAssumeUTXOFile(t *testing.T) {
	dir := t.TempDir()
	overrideFile := filepath.Join(dir, "assumeutxo.json")
	err := os.WriteFile(overrideFile, []byte(`[{
		"height": 110,
		"blockhash": "6affe030b7965ab538f820a56ef56c8149b7dc1d1c144af57113be080db7c397",
		"txoutset_hash": "b952555c8ab81fec46f3d4253b7af256d766ceb39fb7752b9d18cdf4a0141327",
		"coins_count": 110,
		"nchaintx": 111
	}]`), 0600)
	if err != nil {
		t.Fatalf("WriteFile unexpectedly failed: %s", err)
	}

	cfg, err := loadConfigFromArgs([]string{"--appdir", dir, "--regtest", "--override-assumeutxo-file", overrideFile})
	if err != nil {
		t.Fatalf("loadConfigFromArgs unexpectedly failed: %+v", err)
	}
	entry, ok := cfg.NetParams().AssumeUTXOForHeight(110)
	if !ok {
		t.Fatalf("the overriding entry wasn't added")
	}
	if entry.CoinsCount != 110 || entry.ChainTxCount != 111 {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if len(chainparams.RegressionNetParams.AssumeUTXO) != 0 {
		t.Fatalf("the override leaked into the package level params")
	}

	_, err = loadConfigFromArgs([]string{"--appdir", dir, "--testnet", "--override-assumeutxo-file", overrideFile})
	if err == nil || !strings.Contains(err.Error(), "allowed only when using regtest or simnet") {
		t.Fatalf("expected the override to be refused on testnet, got %v", err)
	}
}
