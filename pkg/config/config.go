package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server  ServerConfig  `json:"server"`
	Relay   RelayConfig   `json:"relay"`
	Logging LoggingConfig `json:"logging"`
}

type ServerConfig struct {
	Host string `json:"host" env:"TGRELAY_SERVER_HOST"`
	Port int    `json:"port" env:"TGRELAY_SERVER_PORT"`
}

type RelayConfig struct {
	// Prefix is the leading path segment all routes are anchored under.
	Prefix string `json:"prefix" env:"TGRELAY_RELAY_PREFIX"`
	// SecretToken is handed to Telegram on install and must be echoed
	// back on every webhook delivery.
	SecretToken string `json:"secret_token" env:"TGRELAY_RELAY_SECRET_TOKEN"`
	// APIServer overrides the Bot API base URL. Empty means the public
	// https://api.telegram.org.
	APIServer string `json:"api_server" env:"TGRELAY_RELAY_API_SERVER"`
}

type LoggingConfig struct {
	Enabled       bool   `json:"enabled" env:"TGRELAY_LOGGING_ENABLED"`
	File          string `json:"file" env:"TGRELAY_LOGGING_FILE"`
	MaxSizeMB     int    `json:"max_size_mb" env:"TGRELAY_LOGGING_MAX_SIZE_MB"`
	RetentionDays int    `json:"retention_days" env:"TGRELAY_LOGGING_RETENTION_DAYS"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 18790,
		},
		Relay: RelayConfig{
			Prefix:      "public",
			SecretToken: "",
			APIServer:   "",
		},
		Logging: LoggingConfig{
			Enabled:       false,
			File:          "",
			MaxSizeMB:     20,
			RetentionDays: 3,
		},
	}
}

// LoadConfig builds a Config from defaults, an optional JSON file, and
// TGRELAY_* environment variables, in that order. A missing file is not
// an error; an unknown field in the file is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := unmarshalConfigStrict(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func unmarshalConfigStrict(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			return fmt.Errorf("invalid config: trailing JSON content")
		}
		return err
	}
	return nil
}
