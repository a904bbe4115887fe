package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func resetCache() {
	driverConfig = nil
	configLoaded = false
}

func TestLoadDriverConfigDefaults(t *testing.T) {
	resetCache()
	t.Chdir(t.TempDir())

	cfg, err := LoadDriverConfig()
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", cfg.DevicePath)
	require.Equal(t, -1, cfg.FanMode)
	require.Equal(t, ":8899", cfg.StatsAddr)
}

func TestLoadDriverConfigReadsEnvFile(t *testing.T) {
	resetCache()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"BITFORCE_DEVICE_PATH=/dev/ttyUSB3\nBITFORCE_FAN_MODE=2\n# comment\nBITFORCE_NONCE_RANGE=true\n"),
		0o644))
	t.Chdir(dir)

	cfg, err := LoadDriverConfig()
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB3", cfg.DevicePath)
	require.Equal(t, 2, cfg.FanMode)
	require.True(t, cfg.NonceRange)
}

func TestLoadDriverConfigEnvVarOverridesFile(t *testing.T) {
	resetCache()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BITFORCE_DEVICE_PATH=/dev/ttyUSB3\n"), 0o644))
	t.Chdir(dir)
	t.Setenv("BITFORCE_DEVICE_PATH", "/dev/ttyUSB9")

	cfg, err := LoadDriverConfig()
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB9", cfg.DevicePath)
}

func TestLoadDriverConfigCachesResult(t *testing.T) {
	resetCache()
	t.Chdir(t.TempDir())
	t.Setenv("BITFORCE_FAN_MODE", "4")

	first, err := LoadDriverConfig()
	require.NoError(t, err)
	require.Equal(t, 4, first.FanMode)

	os.Unsetenv("BITFORCE_FAN_MODE")
	second, err := LoadDriverConfig()
	require.NoError(t, err)
	require.Same(t, first, second)
}
