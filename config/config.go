package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/viper"

	"github.com/babylonchain/bldr/types"
)

// EnvPrefix prefixes environment overrides, e.g. BLDR_DATA_DIR.
const EnvPrefix = "BLDR"

// Default constants
const (
	dataDir              = "./data"
	dockerfilesDir       = "./dockerfiles"
	registryURL          = "https://chains.cosmos.directory"
	registryTimeout      = 30 * time.Second
	basePort             = 26657
	keyringBackend       = "test"
	opsDenom             = "uskip"
	gentxAccountAmount   = 200000000000
	genesisAccountAmount = 2000000000
	opsAmount            = 2000000000
	selfDelegation       = 1000000000
)

// BldrConfig are the tool settings. They live next to the topology in the
// same YAML file; topology keys are ignored when decoding.
type BldrConfig struct {
	DataDir         string        `mapstructure:"data-dir"`
	DockerfilesDir  string        `mapstructure:"dockerfiles-dir"`
	RegistryURL     string        `mapstructure:"registry-url"`
	RegistryTimeout time.Duration `mapstructure:"registry-timeout"`
	BasePort        int           `mapstructure:"base-port"`
	KeyringBackend  string        `mapstructure:"keyring-backend"`
	// OpsDenom is the fixed fee denom funded next to the chain's own denom.
	OpsDenom string `mapstructure:"ops-denom"`
	// GentxAccountAmount funds each validator in its private home before gentx.
	GentxAccountAmount uint64 `mapstructure:"gentx-account-amount"`
	// GenesisAccountAmount funds each validator again in the canonical home.
	GenesisAccountAmount uint64 `mapstructure:"genesis-account-amount"`
	OpsAmount            uint64 `mapstructure:"ops-amount"`
	SelfDelegation       uint64 `mapstructure:"self-delegation"`
	// GenesisSubcommand prefixes genesis commands, "genesis" for binaries on
	// SDK v0.47 and later.
	GenesisSubcommand string `mapstructure:"genesis-subcommand"`
	SentrySelfPeer    bool   `mapstructure:"sentry-self-peer"`
}

func (cfg *BldrConfig) Validate() error {
	if cfg.DataDir == "" {
		return errorsmod.Wrap(types.ErrInvalidConfig, "data-dir is required")
	}
	if cfg.DockerfilesDir == "" {
		return errorsmod.Wrap(types.ErrInvalidConfig, "dockerfiles-dir is required")
	}
	u, err := url.Parse(cfg.RegistryURL)
	if err != nil {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "registry-url is not correctly formatted: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "registry-url must be http(s), got %q", cfg.RegistryURL)
	}
	if cfg.RegistryTimeout <= 0 {
		return errorsmod.Wrap(types.ErrInvalidConfig, "registry-timeout must be positive")
	}
	if cfg.BasePort <= 0 || cfg.BasePort > 65535 {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "base-port %d is out of range", cfg.BasePort)
	}
	switch cfg.KeyringBackend {
	case "test", "file", "os", "memory":
	default:
		return errorsmod.Wrapf(types.ErrInvalidConfig, "unsupported keyring-backend %q", cfg.KeyringBackend)
	}
	if err := sdk.ValidateDenom(cfg.OpsDenom); err != nil {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "ops-denom: %v", err)
	}
	if cfg.GentxAccountAmount == 0 || cfg.GenesisAccountAmount == 0 || cfg.SelfDelegation == 0 {
		return errorsmod.Wrap(types.ErrInvalidConfig, "funding amounts must be positive")
	}
	if cfg.SelfDelegation > cfg.GentxAccountAmount {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "self-delegation %d exceeds gentx-account-amount %d",
			cfg.SelfDelegation, cfg.GentxAccountAmount)
	}
	if strings.ContainsAny(cfg.GenesisSubcommand, " \t\n") {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "genesis-subcommand %q must be a single word", cfg.GenesisSubcommand)
	}
	return nil
}

func DefaultBldrConfig() BldrConfig {
	return BldrConfig{
		DataDir:              dataDir,
		DockerfilesDir:       dockerfilesDir,
		RegistryURL:          registryURL,
		RegistryTimeout:      registryTimeout,
		BasePort:             basePort,
		KeyringBackend:       keyringBackend,
		OpsDenom:             opsDenom,
		GentxAccountAmount:   gentxAccountAmount,
		GenesisAccountAmount: genesisAccountAmount,
		OpsAmount:            opsAmount,
		SelfDelegation:       selfDelegation,
		SentrySelfPeer:       true,
	}
}

// Load decodes the config from v on top of the defaults. v is expected to
// have its config file set already.
func Load(v *viper.Viper) (BldrConfig, error) {
	cfg := DefaultBldrConfig()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return BldrConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return BldrConfig{}, err
	}
	return cfg, nil
}

// LoadFile reads the YAML file at path and decodes the config from it.
func LoadFile(path string) (BldrConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return BldrConfig{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Load(v)
}

// defaults are registered key by key so AutomaticEnv can see every key
// during Unmarshal
func setDefaults(v *viper.Viper, cfg BldrConfig) {
	v.SetDefault("data-dir", cfg.DataDir)
	v.SetDefault("dockerfiles-dir", cfg.DockerfilesDir)
	v.SetDefault("registry-url", cfg.RegistryURL)
	v.SetDefault("registry-timeout", cfg.RegistryTimeout)
	v.SetDefault("base-port", cfg.BasePort)
	v.SetDefault("keyring-backend", cfg.KeyringBackend)
	v.SetDefault("ops-denom", cfg.OpsDenom)
	v.SetDefault("gentx-account-amount", cfg.GentxAccountAmount)
	v.SetDefault("genesis-account-amount", cfg.GenesisAccountAmount)
	v.SetDefault("ops-amount", cfg.OpsAmount)
	v.SetDefault("self-delegation", cfg.SelfDelegation)
	v.SetDefault("genesis-subcommand", cfg.GenesisSubcommand)
	v.SetDefault("sentry-self-peer", cfg.SentrySelfPeer)
}
