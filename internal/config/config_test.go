package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "touchlink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeFile(t, `
enabled: true
port: 17233
label: test-device
target_pid: 4242
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 17233, cfg.Port)
	assert.Equal(t, "test-device", cfg.Label)
	assert.Equal(t, 4242, cfg.TargetPID)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Enabled)
	assert.Zero(t, cfg.Port)
}

func TestLoadDisabled(t *testing.T) {
	cfg, err := Load(writeFile(t, "enabled: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeFile(t, "port: [not a port\n"))
	require.Error(t, err)
}

func TestLoadInvalidPort(t *testing.T) {
	_, err := Load(writeFile(t, "port: 70000\n"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "port: -1\n"))
	require.Error(t, err)
}
