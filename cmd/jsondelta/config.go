package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/agentflare-ai/jsondelta"
)

// Config is the optional YAML configuration of the command. Flags given on
// the command line win over file values.
type Config struct {
	// Strict selects the apply error policy. Unset means strict.
	Strict *bool `yaml:"strict"`
	Indent bool  `yaml:"indent"`
	// Keys maps array pointers to the fields identifying their elements.
	Keys map[string][]string `yaml:"keys"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{Keys: map[string][]string{}}
}

func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read the config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if cfg.Keys == nil {
		cfg.Keys = map[string][]string{}
	}
	return cfg, nil
}

// keyOptions turns the configured key-sets into diff options.
func (c Config) keyOptions() ([]jsondelta.Option, error) {
	opts := make([]jsondelta.Option, 0, len(c.Keys))
	for text, fields := range c.Keys {
		ptr, err := jsondelta.ParsePointer(text)
		if err != nil {
			return nil, errors.Wrapf(err, "bad key-set pointer %q", text)
		}
		opts = append(opts, jsondelta.WithKeySet(ptr, fields...))
	}
	return opts, nil
}

// addKeyFlags merges --key values of the form ptr=field1,field2.
func (c *Config) addKeyFlags(values []string) error {
	for _, v := range values {
		i := strings.LastIndexByte(v, '=')
		if i < 0 || i == len(v)-1 {
			return errors.Errorf("--key %q: want pointer=field[,field...]", v)
		}
		var fields []string
		for _, f := range strings.Split(v[i+1:], ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		c.Keys[v[:i]] = fields
	}
	return nil
}
