// Package config handles application configuration loading and validation.
//
// Configuration is loaded from databus.yml and validated using struct tags.
// Missing files fall back to built-in defaults; the DATABUS_API_KEY
// environment variable overrides the configured API key.
package config
