package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxnlabs/contract-reads/internal/contracts"
	"gopkg.in/yaml.v3"
)

const (
	DefaultVerbosity     = "info"
	DefaultEncoding      = "json"
	DefaultCacheSize     = 1024
	DefaultCacheTime     = 5 * time.Minute
	DefaultFetchTimeout  = 30 * time.Second
	DefaultPollInterval  = 4 * time.Second
	DefaultListenAddress = ":9090"
)

type Contract struct {
	Address      string   `yaml:"address"`
	ABI          string   `yaml:"abi"`
	FunctionName string   `yaml:"functionName"`
	Args         []string `yaml:"args"`
}

type Config struct {
	Logger struct {
		Verbosity string `yaml:"verbosity"`
		Encoding  string `yaml:"encoding"`
	} `yaml:"logger"`
	RpcProvider string `yaml:"rpcProvider"`
	ChainID     int64  `yaml:"chainId"`
	Multicall   struct {
		Address string `yaml:"address"`
	} `yaml:"multicall"`
	Cache struct {
		Size         int           `yaml:"size"`
		StaleTime    time.Duration `yaml:"staleTime"`
		CacheTime    time.Duration `yaml:"cacheTime"`
		FetchTimeout time.Duration `yaml:"fetchTimeout"`
	} `yaml:"cache"`
	Blocks struct {
		Subscribe    bool          `yaml:"subscribe"`
		PollInterval time.Duration `yaml:"pollInterval"`
	} `yaml:"blocks"`
	Metrics struct {
		ListenAddress string `yaml:"listenAddress"`
	} `yaml:"metrics"`
	Reads struct {
		AllowFailure *bool      `yaml:"allowFailure"`
		CacheOnBlock bool       `yaml:"cacheOnBlock"`
		Watch        bool       `yaml:"watch"`
		Contracts    []Contract `yaml:"contracts"`
	} `yaml:"reads"`

	// dir is the directory of the loaded file; relative ABI paths resolve against it.
	dir string
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	config.applyDefaults()
	config.dir = filepath.Dir(path)

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Logger.Verbosity == "" {
		c.Logger.Verbosity = DefaultVerbosity
	}
	if c.Logger.Encoding == "" {
		c.Logger.Encoding = DefaultEncoding
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = DefaultCacheSize
	}
	if c.Cache.CacheTime <= 0 {
		c.Cache.CacheTime = DefaultCacheTime
	}
	if c.Cache.FetchTimeout <= 0 {
		c.Cache.FetchTimeout = DefaultFetchTimeout
	}
	if c.Blocks.PollInterval <= 0 {
		c.Blocks.PollInterval = DefaultPollInterval
	}
	if c.Metrics.ListenAddress == "" {
		c.Metrics.ListenAddress = DefaultListenAddress
	}
	if c.Reads.AllowFailure == nil {
		allowFailure := true
		c.Reads.AllowFailure = &allowFailure
	}
}

// MulticallAddress returns the configured Multicall3 address, or nil when
// reads should fall back to one call per contract.
func (c *Config) MulticallAddress() (*common.Address, error) {
	if c.Multicall.Address == "" {
		return nil, nil
	}
	if !common.IsHexAddress(c.Multicall.Address) {
		return nil, fmt.Errorf("invalid multicall address: %s", c.Multicall.Address)
	}
	addr := common.HexToAddress(c.Multicall.Address)
	return &addr, nil
}

// ContractCalls resolves the configured contracts into calls with parsed
// ABIs and typed arguments.
func (c *Config) ContractCalls() ([]contracts.ContractCall, error) {
	calls := make([]contracts.ContractCall, 0, len(c.Reads.Contracts))
	for i, cc := range c.Reads.Contracts {
		if !common.IsHexAddress(cc.Address) {
			return nil, fmt.Errorf("contract %d: invalid address: %s", i, cc.Address)
		}
		contractABI, err := contracts.LoadABI(c.resolveABI(cc.ABI))
		if err != nil {
			return nil, fmt.Errorf("contract %d: %w", i, err)
		}
		method, ok := contractABI.Methods[cc.FunctionName]
		if !ok {
			return nil, fmt.Errorf("contract %d: %w: %s", i, contracts.ErrUnknownFunction, cc.FunctionName)
		}
		args, err := contracts.ParseArgs(method, cc.Args)
		if err != nil {
			return nil, fmt.Errorf("contract %d: %w", i, err)
		}
		calls = append(calls, contracts.ContractCall{
			Address:      common.HexToAddress(cc.Address),
			ABI:          contractABI,
			FunctionName: cc.FunctionName,
			Args:         args,
		})
	}
	return calls, nil
}

func (c *Config) resolveABI(ref string) string {
	if contracts.IsBuiltinABI(ref) || filepath.IsAbs(ref) || c.dir == "" {
		return ref
	}
	return filepath.Join(c.dir, ref)
}
