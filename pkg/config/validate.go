package config

import (
	"fmt"
	"strings"
)

// Validate returns configuration problems found in cfg.
// It does not mutate cfg.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{fmt.Errorf("config is nil")}
	}

	var errs []error

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in (0,65535]"))
	}
	if cfg.Relay.Prefix == "" {
		errs = append(errs, fmt.Errorf("relay.prefix must not be empty"))
	}
	if strings.Contains(cfg.Relay.Prefix, "/") {
		errs = append(errs, fmt.Errorf("relay.prefix must be a single path segment"))
	}
	// An empty secret token would let anyone POST into the webhook route
	// unauthenticated; refuse to start instead.
	if cfg.Relay.SecretToken == "" {
		errs = append(errs, fmt.Errorf("relay.secret_token must not be empty"))
	}
	if cfg.Logging.Enabled && cfg.Logging.File == "" {
		errs = append(errs, fmt.Errorf("logging.file must be set when logging.enabled is true"))
	}
	if cfg.Logging.MaxSizeMB < 0 {
		errs = append(errs, fmt.Errorf("logging.max_size_mb must be >= 0"))
	}
	if cfg.Logging.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("logging.retention_days must be >= 0"))
	}

	return errs
}
