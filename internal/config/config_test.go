package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func writeProjectConfig(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".fspec"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".fspec", "config.yaml"), []byte(content), 0o644))
}

func TestDefaultsWithoutConfigFile(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, Initialize())

	assert.Equal(t, "spec", GetString(KeySpecDir))
	assert.Equal(t, 10*time.Second, GetDuration(KeyLockTimeout))
	assert.False(t, GetBool(KeyNoColor))
}

func TestConfigFileDiscoveredFromSubdirectory(t *testing.T) {
	root := t.TempDir()
	writeProjectConfig(t, root, "spec-dir: features\nlock-timeout: 2s\n")
	sub := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	chdir(t, sub)

	require.NoError(t, Initialize())
	assert.Equal(t, "features", GetString(KeySpecDir))
	assert.Equal(t, 2*time.Second, GetDuration(KeyLockTimeout))
}

func TestEnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	writeProjectConfig(t, root, "spec-dir: features\n")
	chdir(t, root)
	t.Setenv("FSPEC_SPEC_DIR", "requirements")

	require.NoError(t, Initialize())
	assert.Equal(t, "requirements", GetString(KeySpecDir))
}

func TestCorruptConfigFileSurfaces(t *testing.T) {
	root := t.TempDir()
	writeProjectConfig(t, root, "spec-dir: [unterminated\n")
	chdir(t, root)

	assert.Error(t, Initialize())
}

func TestSetOverridesEverything(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, Initialize())

	Set(KeyNoColor, true)
	assert.True(t, GetBool(KeyNoColor))
}
