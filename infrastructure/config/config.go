package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/kaspanet/chainstated/infrastructure/logger"
	"github.com/kaspanet/chainstated/version"
	"github.com/pkg/errors"
)

const (
	defaultConfigFilename = "chainstated.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "chainstated.log"
	defaultErrLogFilename = "chainstated_err.log"
	defaultCoinCacheSize  = 100_000
	defaultDBCacheSizeMiB = 64
	defaultMaxMempoolTxs  = 5000
	minDBCacheSizeMiB     = 4
	defaultRPCListenHost  = "127.0.0.1"
	minProfilePort        = 1024
	maxProfilePort        = 65535
)

var (
	// DefaultAppDir is the default home directory for chainstated.
	DefaultAppDir = btcutil.AppDataDir("chainstated", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
)

// Flags defines the configuration options for chainstated.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion    bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile     string `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir         string `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir         string `long:"logdir" description:"Directory to log output."`
	DebugLevel     string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	RPCListen      string `long:"rpclisten" description:"Interface/port to listen for RPC connections (default port: 8332, testnet: 18332, regtest: 18443)"`
	DisableRPC     bool   `long:"norpc" description:"Disable built-in RPC server"`
	Profile        string `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
	StopAtHeight   int32  `long:"stopatheight" description:"Stop running once a block at or above this height is connected to any chainstate (0 disables)"`
	CoinCacheSize  int    `long:"coincachesize" description:"Number of coins to keep in the in-memory cache of each chainstate"`
	DBCacheSizeMiB int    `long:"dbcache" description:"Size of the database cache of each store, in MiB"`
	MaxMempoolTxs  int    `long:"maxmempooltx" description:"Max number of transactions to keep in the mempool"`
	NetworkFlags
}

// Config defines the configuration options for chainstated.
//
// See LoadConfig for details on the configuration load process.
type Config struct {
	*Flags

	// DataDir is the network's data directory within AppDir.
	DataDir string

	// LogFile and ErrLogFile are the log files within LogDir.
	LogFile    string
	ErrLogFile string
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:     defaultConfigFile,
		AppDir:         DefaultAppDir,
		LogDir:         filepath.Join(DefaultAppDir, defaultLogDirname),
		DebugLevel:     defaultLogLevel,
		CoinCacheSize:  defaultCoinCacheSize,
		DBCacheSizeMiB: defaultDBCacheSizeMiB,
		MaxMempoolTxs:  defaultMaxMempoolTxs,
	}
}

// LoadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in chainstated functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options. Command line options always take precedence.
func LoadConfig() (*Config, error) {
	return loadConfigFromArgs(os.Args[1:])
}

func loadConfigFromArgs(args []string) (*Config, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := *cfgFlags
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	parser := flags.NewParser(cfgFlags, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) || preCfg.ConfigFile != defaultConfigFile {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, err
	}

	cfg := &Config{Flags: cfgFlags}
	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	funcName := "loadConfig"
	reportError := func(err error) (*Config, error) {
		err = errors.Errorf("%s: %s", funcName, err)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	// Namespace the data and log directories per network.
	cfg.AppDir = cleanAndExpandPath(cfg.AppDir)
	cfg.DataDir = filepath.Join(cfg.AppDir, defaultDataDirname, cfg.NetParams().Name)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), cfg.NetParams().Name)
	cfg.LogFile = filepath.Join(cfg.LogDir, defaultLogFilename)
	cfg.ErrLogFile = filepath.Join(cfg.LogDir, defaultErrLogFilename)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	err = logger.ParseAndSetLogLevels(cfg.DebugLevel)
	if err != nil {
		return reportError(err)
	}

	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < minProfilePort || profilePort > maxProfilePort {
			return reportError(errors.Errorf("The profile port must be between %d and %d",
				minProfilePort, maxProfilePort))
		}
	}

	if cfg.StopAtHeight < 0 {
		return reportError(errors.Errorf("The stopatheight option may not be negative -- parsed [%d]",
			cfg.StopAtHeight))
	}
	if cfg.CoinCacheSize < 0 {
		return reportError(errors.Errorf("The coincachesize option may not be negative -- parsed [%d]",
			cfg.CoinCacheSize))
	}
	if cfg.DBCacheSizeMiB < minDBCacheSizeMiB {
		return reportError(errors.Errorf("The dbcache option may not be less than %d -- parsed [%d]",
			minDBCacheSizeMiB, cfg.DBCacheSizeMiB))
	}
	if cfg.MaxMempoolTxs < 0 {
		return reportError(errors.Errorf("The maxmempooltx option may not be negative -- parsed [%d]",
			cfg.MaxMempoolTxs))
	}

	if !cfg.DisableRPC {
		if cfg.RPCListen == "" {
			cfg.RPCListen = net.JoinHostPort(defaultRPCListenHost, cfg.NetParams().RPCPort)
		}
		cfg.RPCListen, err = NormalizeAddress(cfg.RPCListen, cfg.NetParams().RPCPort)
		if err != nil {
			return reportError(err)
		}
	}

	return cfg, nil
}

// NormalizeAddress adds the default port to addr if it has none.
func NormalizeAddress(addr, defaultPort string) (string, error) {
	_, _, err := net.SplitHostPort(addr)
	if err != nil {
		if !strings.Contains(err.Error(), "missing port") {
			return "", errors.Errorf("Address '%s' is invalid: %s", addr, err)
		}
		return net.JoinHostPort(addr, defaultPort), nil
	}
	return addr, nil
}
