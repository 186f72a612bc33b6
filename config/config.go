// Package config loads the host-process runtime configuration: the engine
// parameters that are not part of durable on-chain-style state (environment
// name, metrics listen address, audit log path and rotation, default
// collateral ceiling).
// Grounded on config/config.go's toml.DecodeFile / createDefault pattern.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the host's static runtime configuration.
type Config struct {
	Environment          string `toml:"Environment"`
	MetricsListenAddress  string `toml:"MetricsListenAddress"`
	AuditLogPath          string `toml:"AuditLogPath"`
	AuditLogMaxSizeMB     int    `toml:"AuditLogMaxSizeMB"`
	AuditLogMaxBackups    int    `toml:"AuditLogMaxBackups"`
	AuditLogMaxAgeDays    int    `toml:"AuditLogMaxAgeDays"`
	DefaultCeilingDecimal string `toml:"DefaultCollateralCeilingDecimal"`
}

// Load reads path, writing out a default configuration file first if none
// exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		Environment:           "development",
		MetricsListenAddress:  ":9090",
		AuditLogPath:          "./data/audit.log",
		AuditLogMaxSizeMB:     100,
		AuditLogMaxBackups:    7,
		AuditLogMaxAgeDays:    30,
		DefaultCeilingDecimal: "79228162514264337593543950336", // 2^96
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
