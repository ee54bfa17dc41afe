package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bracketpool/calcutta/go/internal/stats"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Auction struct {
		WarningInterval time.Duration `yaml:"warning_interval"`
	} `yaml:"auction"`
	Payouts map[string]float64 `yaml:"payouts"`
	NATS    struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if config.Auction.WarningInterval <= 0 {
		return nil, fmt.Errorf("auction.warning_interval must be positive")
	}
	return config, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Auction.WarningInterval = 5 * time.Second
	cfg.NATS.URL = os.Getenv("NATS_URL")
	return cfg
}

// payoutScheme builds the pot split from config, falling back to the house
// default when the file does not set one.
func payoutScheme(config *Config) (stats.PayoutScheme, error) {
	if len(config.Payouts) == 0 {
		return stats.DefaultPayoutScheme(), nil
	}
	return stats.NewPayoutScheme(config.Payouts)
}
