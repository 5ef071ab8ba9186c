package config

// Package config provides a reusable loader for this node's configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.2.0

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/meridianledger/core/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.2.0"

// Config represents the unified configuration for a peer. It mirrors the
// structure of the YAML files under cmd/config.
type Config struct {
	Peer struct {
		Address    string `mapstructure:"address" json:"address"`
		PublicKey  string `mapstructure:"public_key" json:"public_key"`
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"peer" json:"peer"`

	Network struct {
		ID             string   `mapstructure:"id" json:"id"`
		MaxPeers       int      `mapstructure:"max_peers" json:"max_peers"`
		GenesisFile    string   `mapstructure:"genesis_file" json:"genesis_file"`
		BootstrapPeers []string `mapstructure:"bootstrap_peers" json:"bootstrap_peers"`
	} `mapstructure:"network" json:"network"`

	Consensus struct {
		BlockTimeMS             int           `mapstructure:"block_time_ms" json:"block_time_ms"`
		CommitTimeMS            int           `mapstructure:"commit_time_ms" json:"commit_time_ms"`
		MaxTransactionsPerBlock int           `mapstructure:"max_transactions_per_block" json:"max_transactions_per_block"`
		TickInterval            time.Duration `mapstructure:"tick_interval" json:"tick_interval"`
	} `mapstructure:"consensus" json:"consensus"`

	Kura struct {
		Dir           string `mapstructure:"dir" json:"dir"`
		BlocksPerFile int    `mapstructure:"blocks_per_file" json:"blocks_per_file"`
	} `mapstructure:"kura" json:"kura"`

	Queue struct {
		MaxTransactionsInQueue int           `mapstructure:"max_transactions_in_queue" json:"max_transactions_in_queue"`
		MaxTransactionsPerUser int           `mapstructure:"max_transactions_per_user" json:"max_transactions_per_user"`
		TransactionTimeToLive  time.Duration `mapstructure:"transaction_time_to_live" json:"transaction_time_to_live"`
		FutureThreshold        time.Duration `mapstructure:"future_threshold" json:"future_threshold"`
	} `mapstructure:"queue" json:"queue"`

	Wasm struct {
		FuelLimit uint64 `mapstructure:"fuel_limit" json:"fuel_limit"`
	} `mapstructure:"wasm" json:"wasm"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the MERIDIAN_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("MERIDIAN_ENV", ""))
}
