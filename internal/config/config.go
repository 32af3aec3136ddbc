// Package config provides configuration loading for keggfetch.
package config

import (
	"time"

	"github.com/pkg/errors"
)

// Config is the complete keggfetch configuration.
type Config struct {
	API   APIConfig   `yaml:"api"`
	Data  DataConfig  `yaml:"data"`
	Cache CacheConfig `yaml:"cache"`
}

// APIConfig configures the KEGG REST client.
type APIConfig struct {
	// BaseURL is the KEGG REST endpoint (default: https://rest.kegg.jp)
	BaseURL string `yaml:"base_url"`
	// Timeout is the per-request timeout
	Timeout time.Duration `yaml:"timeout"`
	// MaxPerSecond caps the request rate against the API
	MaxPerSecond float64 `yaml:"max_per_second"`
	// MaxInFlight caps the number of concurrent requests
	MaxInFlight int `yaml:"max_in_flight"`
	// Retries is the number of attempts for transport errors
	Retries int `yaml:"retries"`
}

// DataConfig configures where stage outputs are written.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// CacheConfig configures the raw-response cache shared by the enzyme and
// sequence stages.
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns a Config with the rates the KEGG API tolerates.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:      "https://rest.kegg.jp",
			Timeout:      60 * time.Second,
			MaxPerSecond: 8,
			MaxInFlight:  9,
			Retries:      3,
		},
		Data:  DataConfig{Dir: "data"},
		Cache: CacheConfig{Dir: "cache"},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must be set")
	}
	if c.API.MaxPerSecond <= 0 {
		return errors.New("api.max_per_second must be positive")
	}
	if c.API.MaxInFlight <= 0 {
		return errors.New("api.max_in_flight must be positive")
	}
	if c.Data.Dir == "" {
		return errors.New("data.dir must be set")
	}

	return nil
}
