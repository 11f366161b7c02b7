package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/auctionhouse/go/internal/auction"
	"github.com/mcdev12/auctionhouse/go/internal/dbconfig"
)

// Config is the auction house service configuration, loaded from YAML with
// environment variables overriding connection settings. Durations are plain
// seconds in the file.
type Config struct {
	Auction struct {
		NoBidSeconds int `yaml:"no_bid_seconds"`
		BidSeconds   int `yaml:"bid_seconds"`
	} `yaml:"auction"`

	NATS struct {
		URL     string `yaml:"url"`
		Enabled bool   `yaml:"enabled"`
	} `yaml:"nats"`

	Outbox struct {
		PollSeconds int `yaml:"poll_seconds"`
		BatchSize   int `yaml:"batch_size"`
	} `yaml:"outbox"`
}

func loadConfig(path string) (*Config, error) {
	var config Config

	// Config file is optional; defaults cover local development.
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	defaults := auction.DefaultConfig()
	if config.Auction.NoBidSeconds <= 0 {
		config.Auction.NoBidSeconds = int(defaults.NoBidDuration / time.Second)
	}
	if config.Auction.BidSeconds <= 0 {
		config.Auction.BidSeconds = int(defaults.BidDuration / time.Second)
	}
	if config.NATS.URL == "" {
		config.NATS.URL = dbconfig.NATSURL()
	}
	if config.Outbox.PollSeconds <= 0 {
		config.Outbox.PollSeconds = 1
	}
	if config.Outbox.BatchSize <= 0 {
		config.Outbox.BatchSize = 100
	}

	return &config, nil
}

func (c *Config) engineConfig() auction.Config {
	return auction.Config{
		NoBidDuration: time.Duration(c.Auction.NoBidSeconds) * time.Second,
		BidDuration:   time.Duration(c.Auction.BidSeconds) * time.Second,
	}
}

func (c *Config) outboxPollInterval() time.Duration {
	return time.Duration(c.Outbox.PollSeconds) * time.Second
}
