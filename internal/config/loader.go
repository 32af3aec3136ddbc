package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory
// when no explicit path is given.
const DefaultFileName = "keggfetch.yaml"

// Load reads the configuration file at path on top of the defaults. An
// empty path falls back to DefaultFileName when it exists; defaults alone
// are used otherwise.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		if _, err := os.Stat(DefaultFileName); err == nil {
			path = DefaultFileName
		}
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read config file %s", path)
		}
		err = yaml.Unmarshal(b, cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to parse config file %s", path)
		}
	}

	err := cfg.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}
