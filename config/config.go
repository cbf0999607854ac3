// Package config loads market and server settings from a YAML file and
// CORETIME_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cloudx-io/coretime/core"
	"github.com/cloudx-io/coretime/market"
)

// EnvPrefix is the prefix for environment overrides, e.g. CORETIME_MARKET_SUPPLY.
const EnvPrefix = "CORETIME"

// MarketConfig holds the parameters of a market session.
type MarketConfig struct {
	// Supply is the number of cores offered per round
	Supply float64 `mapstructure:"supply"`

	// Premium is the fractional markup, 1.0-5.0 in the dashboard (100%-500%)
	Premium float64 `mapstructure:"premium"`

	// InitialReserve is the reserve price of the first round
	InitialReserve float64 `mapstructure:"initialReserve"`

	// DesiredCapacity is the utilization target of the reserve controller (0.0-1.0)
	DesiredCapacity float64 `mapstructure:"desiredCapacity"`

	// Sensitivity is the controller gain k
	Sensitivity float64 `mapstructure:"sensitivity"`

	// Increment is the minimum reserve step after a sold-out round
	Increment float64 `mapstructure:"increment"`

	// MinimumReserve is the reserve floor
	MinimumReserve float64 `mapstructure:"minimumReserve"`

	// Seed makes tie-breaking reproducible; 0 uses crypto/rand
	Seed int64 `mapstructure:"seed"`
}

// ServerConfig holds the settings of the round server.
type ServerConfig struct {
	// Network is "tcp" or "vsock"
	Network string `mapstructure:"network"`

	// Address is the TCP listen address (tcp only)
	Address string `mapstructure:"address"`

	// Port is the vsock port (vsock only)
	Port uint32 `mapstructure:"port"`

	// MaxWorkers bounds concurrently handled connections
	MaxWorkers int `mapstructure:"maxWorkers"`

	// ReadTimeout bounds how long a connection may take to send its request
	ReadTimeout time.Duration `mapstructure:"readTimeout"`

	// SigningKeyFile is a PEM ECDSA P-384 key for receipts outside an enclave;
	// empty generates a key at startup
	SigningKeyFile string `mapstructure:"signingKeyFile"`

	// ModuleID names the local receipt signer
	ModuleID string `mapstructure:"moduleId"`
}

// Config is the complete configuration.
type Config struct {
	Market MarketConfig `mapstructure:"market"`
	Server ServerConfig `mapstructure:"server"`
}

// Default returns the dashboard defaults: 10 cores, 200% premium, target 0.9,
// k 2, starting reserve 1000.
func Default() Config {
	controller := core.DefaultReserveControllerConfig()
	return Config{
		Market: MarketConfig{
			Supply:          10,
			Premium:         2.0,
			InitialReserve:  1000,
			DesiredCapacity: controller.DesiredCapacity,
			Sensitivity:     controller.Sensitivity,
			Increment:       controller.Increment,
			MinimumReserve:  controller.MinimumReserve,
		},
		Server: ServerConfig{
			Network:     "tcp",
			Address:     "127.0.0.1:5000",
			Port:        5000,
			MaxWorkers:  8,
			ReadTimeout: 30 * time.Second,
			ModuleID:    "coretime-local",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("market.supply", d.Market.Supply)
	v.SetDefault("market.premium", d.Market.Premium)
	v.SetDefault("market.initialReserve", d.Market.InitialReserve)
	v.SetDefault("market.desiredCapacity", d.Market.DesiredCapacity)
	v.SetDefault("market.sensitivity", d.Market.Sensitivity)
	v.SetDefault("market.increment", d.Market.Increment)
	v.SetDefault("market.minimumReserve", d.Market.MinimumReserve)
	v.SetDefault("market.seed", d.Market.Seed)
	v.SetDefault("server.network", d.Server.Network)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.maxWorkers", d.Server.MaxWorkers)
	v.SetDefault("server.readTimeout", d.Server.ReadTimeout)
	v.SetDefault("server.signingKeyFile", d.Server.SigningKeyFile)
	v.SetDefault("server.moduleId", d.Server.ModuleID)
}

// Load reads configuration from path (optional) and the environment, then validates it.
// Environment keys use the prefix and underscores, e.g. CORETIME_MARKET_SUPPLY=16.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks for invalid configuration values.
func (c *Config) Validate() error {
	if err := c.Market.Validate(); err != nil {
		return fmt.Errorf("invalid market config: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	return nil
}

// Validate checks the market parameters.
func (c *MarketConfig) Validate() error {
	return c.Params().Validate()
}

// Validate checks the server settings.
func (c *ServerConfig) Validate() error {
	switch c.Network {
	case "tcp":
		if c.Address == "" {
			return fmt.Errorf("address must be set for tcp")
		}
	case "vsock":
		if c.Port == 0 {
			return fmt.Errorf("port must be set for vsock")
		}
	default:
		return fmt.Errorf("network must be tcp or vsock, got %q", c.Network)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("maxWorkers must be > 0, got %d", c.MaxWorkers)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("readTimeout must be > 0, got %s", c.ReadTimeout)
	}
	return nil
}

// ControllerConfig returns the reserve controller parameters.
func (c *MarketConfig) ControllerConfig() core.ReserveControllerConfig {
	return core.ReserveControllerConfig{
		DesiredCapacity: c.DesiredCapacity,
		Sensitivity:     c.Sensitivity,
		Increment:       c.Increment,
		MinimumReserve:  c.MinimumReserve,
	}
}

// Params converts the configuration into driver parameters.
func (c *MarketConfig) Params() market.Params {
	return market.Params{
		Supply:         c.Supply,
		Premium:        c.Premium,
		InitialReserve: c.InitialReserve,
		Controller:     c.ControllerConfig(),
	}
}

// RandSource returns a seeded source when Seed is set, or nil for crypto/rand.
func (c *MarketConfig) RandSource() core.RandSource {
	if c.Seed == 0 {
		return nil
	}
	return core.NewSeededRandSource(c.Seed)
}
