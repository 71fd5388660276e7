package config

// APIConfig contains Databús API client configuration
type APIConfig struct {
	BaseURL    string `yaml:"baseURL" validate:"omitempty,url"`
	APIKey     string `yaml:"apiKey"`
	TimeoutSec int    `yaml:"timeoutSec" validate:"gte=0"`
	MaxRetries int    `yaml:"maxRetries" validate:"gte=0"`
}

// ValidationConfig contains validation engine configuration
type ValidationConfig struct {
	PassThreshold int `yaml:"passThreshold" validate:"gte=0,lte=100"`
}

// StoreConfig contains report history store configuration
type StoreConfig struct {
	Path string `yaml:"path"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	API        APIConfig        `yaml:"api"`
	Validation ValidationConfig `yaml:"validation"`
	Store      StoreConfig      `yaml:"store"`
}
