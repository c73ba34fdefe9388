package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/authflow/internal/flagx"
)

// JSONConfig is the on-disk form of Config. Absent keys keep the defaults.
type JSONConfig struct {
	ListenAddr   *string `json:"listen_addr"`
	DeviceSecret *string `json:"device_secret"`
	MaxFailures  *int    `json:"max_failures"`
	LogLevel     *string `json:"log_level"`
}

// parseJSON overlays cfg with the file named by -c or -config.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ListenAddr != nil {
		cfg.ListenAddr = *jc.ListenAddr
	}
	if jc.DeviceSecret != nil {
		cfg.DeviceSecret = *jc.DeviceSecret
	}
	if jc.MaxFailures != nil {
		cfg.MaxFailures = *jc.MaxFailures
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	return nil
}
