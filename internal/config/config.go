// Package config loads the application configuration from an HCL file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete application configuration.
type Config struct {
	LogLevel string       `hcl:"log_level,optional"`
	AI       *AISettings   `hcl:"ai,block"`
	Poker    *PokerTable   `hcl:"poker,block"`
	Stats    *StatsStorage `hcl:"stats,block"`
}

// AISettings configures the model backend and decision timing.
type AISettings struct {
	Host            string `hcl:"host,optional"`
	Model           string `hcl:"model,optional"`
	DecisionTimeout string `hcl:"decision_timeout,optional"`
	RequestTimeout  string `hcl:"request_timeout,optional"`
}

// PokerTable configures the hold'em table.
type PokerTable struct {
	SmallBlind    int `hcl:"small_blind,optional"`
	BigBlind      int `hcl:"big_blind,optional"`
	StartingChips int `hcl:"starting_chips,optional"`
}

// StatsStorage configures where game results are persisted.
type StatsStorage struct {
	Path string `hcl:"path,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		AI: &AISettings{
			Host:            "http://localhost:11434",
			Model:           "llama3",
			DecisionTimeout: "30s",
			RequestTimeout:  "60s",
		},
		Poker: &PokerTable{
			SmallBlind:    10,
			BigBlind:      20,
			StartingChips: 1000,
		},
		Stats: &StatsStorage{
			Path: "tabletalk.db",
		},
	}
}

// Load reads configuration from an HCL file, falling back to defaults
// when the file does not exist. Missing fields take their defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := Default()
	if config.AI == nil {
		config.AI = &AISettings{}
	}
	if config.Poker == nil {
		config.Poker = &PokerTable{}
	}
	if config.Stats == nil {
		config.Stats = &StatsStorage{}
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.AI.Host == "" {
		config.AI.Host = defaults.AI.Host
	}
	if config.AI.Model == "" {
		config.AI.Model = defaults.AI.Model
	}
	if config.AI.DecisionTimeout == "" {
		config.AI.DecisionTimeout = defaults.AI.DecisionTimeout
	}
	if config.AI.RequestTimeout == "" {
		config.AI.RequestTimeout = defaults.AI.RequestTimeout
	}
	if config.Poker.SmallBlind == 0 {
		config.Poker.SmallBlind = defaults.Poker.SmallBlind
	}
	if config.Poker.BigBlind == 0 {
		config.Poker.BigBlind = defaults.Poker.BigBlind
	}
	if config.Poker.StartingChips == 0 {
		config.Poker.StartingChips = defaults.Poker.StartingChips
	}
	if config.Stats.Path == "" {
		config.Stats.Path = defaults.Stats.Path
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations the engines cannot run with.
func (c *Config) Validate() error {
	if _, err := c.DecisionTimeout(); err != nil {
		return fmt.Errorf("invalid decision_timeout: %w", err)
	}
	if _, err := c.RequestTimeout(); err != nil {
		return fmt.Errorf("invalid request_timeout: %w", err)
	}
	if c.Poker.SmallBlind <= 0 || c.Poker.BigBlind <= 0 {
		return fmt.Errorf("blinds must be positive, got %d/%d", c.Poker.SmallBlind, c.Poker.BigBlind)
	}
	if c.Poker.SmallBlind >= c.Poker.BigBlind {
		return fmt.Errorf("small blind %d must be below big blind %d", c.Poker.SmallBlind, c.Poker.BigBlind)
	}
	if c.Poker.StartingChips < c.Poker.BigBlind {
		return fmt.Errorf("starting chips %d cannot cover the big blind %d", c.Poker.StartingChips, c.Poker.BigBlind)
	}
	return nil
}

// DecisionTimeout returns how long the dispatcher waits for a provider
// decision before falling back.
func (c *Config) DecisionTimeout() (time.Duration, error) {
	return time.ParseDuration(c.AI.DecisionTimeout)
}

// RequestTimeout returns the HTTP timeout for a single model request.
func (c *Config) RequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.AI.RequestTimeout)
}
