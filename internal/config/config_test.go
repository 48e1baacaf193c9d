package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "sqlvault", cfg.AppName)
	require.Equal(t, "", cfg.Storage.DBPath)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, 2000, cfg.CLI.HistoryMax)
}

func TestLoad_OverridesOnlyProvidedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqlvault.yaml")
	yaml := `
storage:
  db_path: /tmp/mydb.svdb
  compress: true
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "/tmp/mydb.svdb", cfg.Storage.DBPath)
	require.True(t, cfg.Storage.Compress)
	require.Equal(t, "debug", cfg.Log.Level)

	// Untouched keys keep their Default() values.
	require.Equal(t, "sqlvault", cfg.AppName)
	require.Equal(t, 2000, cfg.CLI.HistoryMax)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
