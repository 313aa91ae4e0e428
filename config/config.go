package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress      string            `toml:"RPCAddress"`
	DataDir         string            `toml:"DataDir"`
	ServiceName     string            `toml:"ServiceName"`
	Environment     string            `toml:"Environment"`
	ScheduleFile    string            `toml:"ScheduleFile"`
	AdminAddress    string            `toml:"AdminAddress"`
	StakeToken      string            `toml:"StakeToken"`
	RewardToken     string            `toml:"RewardToken"`
	FarmToken       string            `toml:"FarmToken"`
	StakingDuration uint64            `toml:"StakingDuration"`
	GenesisTime     uint64            `toml:"GenesisTime"`
	BlockSeconds    uint64            `toml:"BlockSeconds"`
	MintCaps        map[string]string `toml:"MintCaps"`
}

// Load loads the configuration from the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the daemon cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress must be set")
	}
	if strings.TrimSpace(c.StakeToken) == "" || strings.TrimSpace(c.RewardToken) == "" || strings.TrimSpace(c.FarmToken) == "" {
		return fmt.Errorf("config: token symbols must be set")
	}
	if c.StakingDuration == 0 {
		return fmt.Errorf("config: StakingDuration must be positive")
	}
	if c.BlockSeconds == 0 {
		return fmt.Errorf("config: BlockSeconds must be positive")
	}
	if _, err := c.ParseMintCaps(); err != nil {
		return err
	}
	return nil
}

// ParseMintCaps decodes the per-token cap table into big integers.
func (c *Config) ParseMintCaps() (map[string]*big.Int, error) {
	caps := make(map[string]*big.Int, len(c.MintCaps))
	for token, raw := range c.MintCaps {
		value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
		if !ok || value.Sign() < 0 {
			return nil, fmt.Errorf("config: mint cap for %s is not a valid amount: %q", token, raw)
		}
		caps[token] = value
	}
	return caps, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:      ":8545",
		DataDir:         "./rewardvault-data",
		ServiceName:     "rewardvaultd",
		Environment:     "local",
		ScheduleFile:    "schedule.yaml",
		AdminAddress:    "0x0000000000000000000000000000000000000001",
		StakeToken:      "STK",
		RewardToken:     "RVT",
		FarmToken:       "RVT",
		StakingDuration: 604800,
		GenesisTime:     0,
		BlockSeconds:    5,
		MintCaps:        map[string]string{"RVT": "1000000000000000000000000"},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
