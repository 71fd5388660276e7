package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is the public Databús API endpoint.
	DefaultBaseURL = "https://api.databus.cr"

	// DefaultPassThreshold is the minimum score for a passing validation.
	DefaultPassThreshold = 60
)

// Default returns the configuration used when no config file is present.
func Default() AppConfig {
	return AppConfig{
		API: APIConfig{
			BaseURL:    DefaultBaseURL,
			TimeoutSec: 30,
			MaxRetries: 3,
		},
		Validation: ValidationConfig{
			PassThreshold: DefaultPassThreshold,
		},
		Store: StoreConfig{
			Path: "databus.db",
		},
	}
}

// Load reads and validates the application configuration. When path is empty
// the well-known locations are tried in order; a missing file is not an error
// and yields the defaults. The DATABUS_API_KEY environment variable overrides
// the configured API key.
func Load(path string) (AppConfig, error) {
	cfg := Default()

	paths := []string{"databus.yml", ".databus.yml"}
	if path != "" {
		paths = []string{path}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		if path != "" {
			return cfg, err
		}
		// no config file anywhere; defaults apply
		return applyEnv(cfg), nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return cfg, err
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.TimeoutSec == 0 {
		cfg.API.TimeoutSec = 30
	}
	if cfg.Validation.PassThreshold == 0 {
		cfg.Validation.PassThreshold = DefaultPassThreshold
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg AppConfig) AppConfig {
	if key := os.Getenv("DATABUS_API_KEY"); key != "" {
		cfg.API.APIKey = key
	}
	return cfg
}
