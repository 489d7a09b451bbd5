// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config loads the node and deployment settings from YAML.
package config

import (
	"io/fs"
	"math"
	"math/big"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rccstake/rccstake/rcc"
)

// Config is the YAML document. Values may reference ${VAR} from the environment or a .env file.
type Config struct {
	Network        string  `yaml:"network"`
	DataDir        string  `yaml:"dataDir"`
	APIAddr        string  `yaml:"apiAddr"`
	AllowedOrigins string  `yaml:"allowedOrigins"`
	Contract       string  `yaml:"contract,omitempty"`
	Deploy         Deploy  `yaml:"deploy"`
	Pools          []Pool  `yaml:"pools,omitempty"`
	Funding        []Grant `yaml:"funding,omitempty"`
}

// Deploy holds the initializer arguments: reward token, start height, end height, reward per height.
type Deploy struct {
	Owner string `yaml:"owner,omitempty"`
	Args  []any  `yaml:"args"`
}

// Pool is a pool created right after deployment.
type Pool struct {
	StakingToken        string `yaml:"stakingToken"`
	Weight              uint64 `yaml:"weight"`
	MinDeposit          string `yaml:"minDeposit"`
	UnstakeLockDuration uint32 `yaml:"unstakeLockDuration"`
}

// Grant mints tokens after deployment.
type Grant struct {
	Token  string `yaml:"token"`
	To     string `yaml:"to"`
	Amount string `yaml:"amount"`
}

// InitArgs are the parsed deploy arguments.
type InitArgs struct {
	RewardToken     rcc.Address
	StartHeight     uint32
	EndHeight       uint32
	RewardPerHeight *big.Int
	Owner           *rcc.Address
}

// PoolArgs are the parsed arguments of a pool.
type PoolArgs struct {
	StakingToken        rcc.Address
	Weight              uint64
	MinDeposit          *big.Int
	UnstakeLockDuration uint32
}

// GrantArgs are the parsed arguments of a grant.
type GrantArgs struct {
	Token  rcc.Address
	To     rcc.Address
	Amount *big.Int
}

// Default returns the development settings.
func Default() *Config {
	return &Config{
		Network:        "dev",
		DataDir:        "./data",
		APIAddr:        "localhost:8669",
		AllowedOrigins: "*",
		Deploy: Deploy{
			Args: []any{"0x48b0eb5edc42119206c77c92daef0923325bb783", 1, 7000000, 1000},
		},
	}
}

// LoadEnv loads the given .env files, or ./.env when none is given. Missing files are ignored.
// Variables already set in the environment win.
func LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "load env")
	}
	return nil
}

// Load reads the YAML file at path over the defaults, expanding environment references.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := Parse(data, cfg); err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return cfg, nil
}

// Parse expands environment references in data and decodes it into cfg.
func Parse(data []byte, cfg *Config) error {
	expanded := os.Expand(string(data), os.Getenv)
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return errors.Wrap(err, "decode config")
	}
	_, err := cfg.Validate()
	return err
}

// Validate checks every address and number in the config and returns the parsed deploy arguments.
func (c *Config) Validate() (*InitArgs, error) {
	if c.Contract != "" {
		if _, err := rcc.ParseAddress(c.Contract); err != nil {
			return nil, errors.WithMessage(err, "contract")
		}
	}
	args, err := c.InitArgs()
	if err != nil {
		return nil, err
	}
	if _, err := c.PoolArgs(); err != nil {
		return nil, err
	}
	if _, err := c.GrantArgs(); err != nil {
		return nil, err
	}
	return args, nil
}

// ContractAddress returns the configured contract address, or the built-in one.
func (c *Config) ContractAddress() rcc.Address {
	if addr, err := rcc.ParseAddress(c.Contract); err == nil {
		return addr
	}
	return rcc.StakeContractAddress
}

// InitArgs parses the deploy arguments.
func (c *Config) InitArgs() (*InitArgs, error) {
	if len(c.Deploy.Args) != 4 {
		return nil, errors.Errorf("deploy: want 4 args, got %d", len(c.Deploy.Args))
	}
	token, err := rcc.ParseAddress(toString(c.Deploy.Args[0]))
	if err != nil {
		return nil, errors.WithMessage(err, "deploy: reward token")
	}
	start, err := parseUint32(toString(c.Deploy.Args[1]))
	if err != nil {
		return nil, errors.WithMessage(err, "deploy: start height")
	}
	end, err := parseUint32(toString(c.Deploy.Args[2]))
	if err != nil {
		return nil, errors.WithMessage(err, "deploy: end height")
	}
	rate, err := parseAmount(toString(c.Deploy.Args[3]))
	if err != nil {
		return nil, errors.WithMessage(err, "deploy: reward per height")
	}
	args := &InitArgs{
		RewardToken:     token,
		StartHeight:     start,
		EndHeight:       end,
		RewardPerHeight: rate,
	}
	if c.Deploy.Owner != "" {
		owner, err := rcc.ParseAddress(c.Deploy.Owner)
		if err != nil {
			return nil, errors.WithMessage(err, "deploy: owner")
		}
		args.Owner = &owner
	}
	return args, nil
}

func (c *Config) PoolArgs() ([]*PoolArgs, error) {
	pools := make([]*PoolArgs, 0, len(c.Pools))
	for i, p := range c.Pools {
		token, err := rcc.ParseAddress(p.StakingToken)
		if err != nil {
			return nil, errors.WithMessagef(err, "pools[%d]: staking token", i)
		}
		minDeposit, err := parseAmount(p.MinDeposit)
		if err != nil {
			return nil, errors.WithMessagef(err, "pools[%d]: min deposit", i)
		}
		pools = append(pools, &PoolArgs{
			StakingToken:        token,
			Weight:              p.Weight,
			MinDeposit:          minDeposit,
			UnstakeLockDuration: p.UnstakeLockDuration,
		})
	}
	return pools, nil
}

func (c *Config) GrantArgs() ([]*GrantArgs, error) {
	grants := make([]*GrantArgs, 0, len(c.Funding))
	for i, g := range c.Funding {
		token, err := rcc.ParseAddress(g.Token)
		if err != nil {
			return nil, errors.WithMessagef(err, "funding[%d]: token", i)
		}
		to, err := rcc.ParseAddress(g.To)
		if err != nil {
			return nil, errors.WithMessagef(err, "funding[%d]: to", i)
		}
		amount, err := parseAmount(g.Amount)
		if err != nil {
			return nil, errors.WithMessagef(err, "funding[%d]: amount", i)
		}
		grants = append(grants, &GrantArgs{Token: token, To: to, Amount: amount})
	}
	return grants, nil
}

func toString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		if v == math.Trunc(v) && v >= 0 && v < 1<<63 {
			return strconv.FormatUint(uint64(v), 10)
		}
	}
	return ""
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Errorf("invalid height %q", s)
	}
	return uint32(v), nil
}

// parseAmount accepts a decimal or 0x-prefixed hex integer. Empty means zero.
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 || v.BitLen() > 256 {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return v, nil
}
