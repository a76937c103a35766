// Package config loads the YAML configuration consumed by the CLI: the
// per-run environments file (RPC endpoint + wallet per party) and the
// bulk-execute sweep file (protocol/strategy/size matrix).
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Layr-Labs/fairswap-bench/pkg/bfeerrors"
)

// WalletConfig is one party's RPC endpoint and signing key, as read from
// environments YAML.
type WalletConfig struct {
	Endpoint struct {
		URL string `yaml:"url"`
	} `yaml:"endpoint"`
	Wallet struct {
		Address    string `yaml:"address"`
		PrivateKey string `yaml:"privateKey"`
	} `yaml:"wallet"`
}

// EnvironmentsConfig holds the three parties' connection details: the
// operator (deploys shared infrastructure), the seller, and the buyer.
// Matching the reference implementation's default filename,
// `.environments.yaml`.
type EnvironmentsConfig struct {
	Operator WalletConfig `yaml:"operator"`
	Seller   WalletConfig `yaml:"seller"`
	Buyer    WalletConfig `yaml:"buyer"`
}

// LoadEnvironments reads and parses an environments YAML file.
func LoadEnvironments(path string) (*EnvironmentsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &bfeerrors.EnvironmentsConfigurationError{Message: "reading " + path, Cause: err}
	}

	var cfg EnvironmentsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &bfeerrors.EnvironmentsConfigurationError{Message: "parsing " + path, Cause: err}
	}
	if cfg.Operator.Endpoint.URL == "" {
		cfg.Operator.Endpoint.URL = "http://localhost:8545/"
	}
	if cfg.Seller.Endpoint.URL == "" {
		cfg.Seller.Endpoint.URL = cfg.Operator.Endpoint.URL
	}
	if cfg.Buyer.Endpoint.URL == "" {
		cfg.Buyer.Endpoint.URL = cfg.Operator.Endpoint.URL
	}
	return &cfg, nil
}

// BulkProtocolEntry configures one protocol+strategy combination to sweep
// across every configured file size in a bulk-execute run.
type BulkProtocolEntry struct {
	Protocol       string            `yaml:"protocol"`
	SellerStrategy string            `yaml:"sellerStrategy"`
	BuyerStrategy  string            `yaml:"buyerStrategy"`
	Parameters     map[string]string `yaml:"parameters"`
}

// BulkConfig is the sweep configuration consumed by the bulk-execute
// subcommand.
type BulkConfig struct {
	Protocols  []BulkProtocolEntry `yaml:"protocols"`
	FileSizes  []int64             `yaml:"sizes"`
	Iterations int                 `yaml:"iterations"`
	Price      int64               `yaml:"price"`
	OutputDir  string              `yaml:"outputDir"`
}

// LoadBulkConfig reads and parses a bulk-execute sweep configuration file.
func LoadBulkConfig(path string) (*BulkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &bfeerrors.ConfigurationError{Message: "reading bulk config " + path + ": " + err.Error()}
	}
	var cfg BulkConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &bfeerrors.ConfigurationError{Message: "parsing bulk config " + path + ": " + err.Error()}
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1
	}
	return &cfg, nil
}
