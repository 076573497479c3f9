// Package config loads and validates the engine configuration. A config
// that fails validation is fatal at startup: no component runs with a
// partially valid configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quantden/sigtrader/indicators"
	"github.com/quantden/sigtrader/report"
	"github.com/quantden/sigtrader/risk"
	"github.com/quantden/sigtrader/strategies"
)

// Config represents the complete engine configuration.
type Config struct {
	Account    AccountConfig           `json:"account" yaml:"account"`
	Backtest   BacktestConfig          `json:"backtest" yaml:"backtest"`
	Strategy   strategies.EngineConfig `json:"strategy" yaml:"strategy"`
	Indicators indicators.Config       `json:"indicators" yaml:"indicators"`
	Report     report.Config           `json:"report" yaml:"report"`
	Journal    JournalConfig           `json:"journal" yaml:"journal"`
}

// AccountConfig contains account initialization parameters.
type AccountConfig struct {
	Balance      float64 `json:"balance" yaml:"balance"`
	RiskPerTrade float64 `json:"risk_per_trade" yaml:"risk_per_trade"`
}

// BacktestConfig selects the replay inputs.
type BacktestConfig struct {
	Instrument string `json:"instrument" yaml:"instrument"`
	Strategy   string `json:"strategy" yaml:"strategy"`

	// DataFile is either a precomputed snapshot CSV or, with Candles set,
	// a raw OHLCV file run through the indicator pipeline first.
	DataFile string `json:"data_file" yaml:"data_file"`
	Candles  bool   `json:"candles" yaml:"candles"`

	From string `json:"from,omitempty" yaml:"from,omitempty"` // RFC3339, optional
	To   string `json:"to,omitempty" yaml:"to,omitempty"`

	CloseEnd bool `json:"close_end" yaml:"close_end"`
}

// JournalConfig contains trade-journal parameters.
type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile  string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile  string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	ParquetFile string `json:"parquet_file,omitempty" yaml:"parquet_file,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (format chosen by extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Account.RiskPerTrade <= 0 || c.Account.RiskPerTrade > 0.5 {
		return fmt.Errorf("account.risk_per_trade must be in (0, 0.5]")
	}
	if c.Backtest.Instrument == "" {
		return fmt.Errorf("backtest.instrument is required")
	}
	known := false
	for _, name := range strategies.Names() {
		if c.Backtest.Strategy == name {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("backtest.strategy must be one of %v", strategies.Names())
	}
	if c.Backtest.DataFile == "" {
		return fmt.Errorf("backtest.data_file is required")
	}
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if err := c.Indicators.Validate(); err != nil {
		return err
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults. The strategy
// sections start from each variant's own defaults so a minimal file only
// has to name the instrument and data file.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Balance:      10_000,
			RiskPerTrade: 0.02,
		},
		Backtest: BacktestConfig{
			Strategy: "mean-reversion",
			CloseEnd: true,
		},
		Strategy: strategies.EngineConfig{
			Risk: risk.DefaultParams(),
			Exits: strategies.ExitConfig{
				BreakevenTriggerPct: 0.02,
				ProfitLocks: []strategies.ProfitLock{
					{TriggerPct: 0.05, KeepFraction: 0.5},
					{TriggerPct: 0.10, KeepFraction: 0.9},
				},
			},
			MeanReversion: strategies.MeanReversionConfig{}.Defaults(),
			Momentum:      strategies.MomentumConfig{}.Defaults(),
		},
		Indicators: indicators.Defaults(),
		Report:     report.Config{Annualization: 252},
		Journal:    JournalConfig{Type: "none"},
	}
}
