package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DriverConfig holds the defaults the CLI falls back to when a flag is
// not explicitly set: which device path to probe, whether nonce-range
// mode is allowed, the default fan mode, and the stats RPC bind address.
type DriverConfig struct {
	DevicePath   string
	NonceRange   bool
	FanMode      int
	StatsAddr    string
}

var (
	driverConfig *DriverConfig
	configLoaded bool
)

// LoadDriverConfig loads defaults from a .env file in the project root
// (if present), then applies BITFORCE_* environment variable overrides.
// The result is cached after the first call.
func LoadDriverConfig() (*DriverConfig, error) {
	if driverConfig != nil && configLoaded {
		return driverConfig, nil
	}

	cfg := &DriverConfig{
		DevicePath: "/dev/ttyUSB0",
		FanMode:    -1,
		StatsAddr:  ":8899",
	}

	projectRoot := findProjectRoot()
	envPath := filepath.Join(projectRoot, ".env")
	if data, err := os.ReadFile(envPath); err == nil {
		parseEnvFile(string(data), cfg)
	}

	if v := os.Getenv("BITFORCE_DEVICE_PATH"); v != "" {
		cfg.DevicePath = v
	}
	if v := os.Getenv("BITFORCE_NONCE_RANGE"); v != "" {
		cfg.NonceRange = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("BITFORCE_FAN_MODE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FanMode = n
		}
	}
	if v := os.Getenv("BITFORCE_STATS_ADDR"); v != "" {
		cfg.StatsAddr = v
	}

	driverConfig = cfg
	configLoaded = true
	return cfg, nil
}

func parseEnvFile(content string, cfg *DriverConfig) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "BITFORCE_DEVICE_PATH":
			cfg.DevicePath = value
		case "BITFORCE_NONCE_RANGE":
			cfg.NonceRange = value == "1" || strings.EqualFold(value, "true")
		case "BITFORCE_FAN_MODE":
			if n, err := strconv.Atoi(value); err == nil {
				cfg.FanMode = n
			}
		case "BITFORCE_STATS_ADDR":
			cfg.StatsAddr = value
		}
	}
}

func findProjectRoot() string {
	cwd, _ := os.Getwd()
	if _, err := os.Stat(filepath.Join(cwd, ".env")); err == nil {
		return cwd
	}
	for {
		if _, err := os.Stat(filepath.Join(cwd, "go.mod")); err == nil {
			return cwd
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return cwd
		}
		cwd = parent
	}
}
