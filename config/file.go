package config

import (
	"fmt"
	"os"

	"event-wallboard/errors"

	"gopkg.in/yaml.v2"
)

// Load builds the startup configuration from the environment and, when
// CONFIG_FILE is set, the YAML overlay it names. It returns the validated
// config together with the environment-only base the overlay was applied
// to, which is what reloads start from.
func Load() (cfg *Config, base *Config, err error) {
	base = LoadConfig()
	if base.File == "" {
		if err := base.Validate(); err != nil {
			return nil, nil, errors.NewConfigurationError(errors.ErrCodeConfigurationError, "invalid configuration", err)
		}
		return base, base, nil
	}

	cfg, err = LoadFile(base.File, base)
	if err != nil {
		return nil, nil, err
	}
	return cfg, base, nil
}

// LoadFile reads the YAML overlay at path on top of base. Keys missing from
// the file keep their base values; unknown keys are rejected. base is not
// modified. Failures are configuration AppErrors.
func LoadFile(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError(errors.ErrCodeConfigurationError, fmt.Sprintf("config file: read %q", path), err)
	}

	cfg := *base
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, errors.NewConfigurationError(errors.ErrCodeConfigurationError, fmt.Sprintf("config file: parse %q", path), err)
	}
	cfg.File = path

	if err := cfg.Validate(); err != nil {
		return nil, errors.NewConfigurationError(errors.ErrCodeConfigurationError, fmt.Sprintf("config file: %q", path), err)
	}

	return &cfg, nil
}
