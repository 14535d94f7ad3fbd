package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
http:
  addr: ":8080"
dock:
  size: 12
  three_pl_start: 8
  three_pl_end: 10
routes:
  path: routes.csv
persistence:
  backend: sqlite
  path: movements.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, 12, cfg.Dock.Size)
	require.Equal(t, 8, cfg.Dock.ThreePLStart)
	require.Equal(t, "routes.csv", cfg.Routes.Path)
	require.Equal(t, "sqlite", cfg.Persistence.Backend)
	// Unset fields take defaults.
	require.Equal(t, 2, cfg.Dock.PHCapacity)
	require.Equal(t, 60, cfg.Dock.RebalanceSeconds)
	require.Equal(t, ":9090", cfg.Metrics.PrometheusAddr)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", "http:\n  addr: \"\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":5000", cfg.HTTP.Addr)
	require.Equal(t, 10, cfg.Dock.Size)
	require.Equal(t, 7, cfg.Dock.ThreePLStart)
	require.Equal(t, 9, cfg.Dock.ThreePLEnd)
	require.Equal(t, "jsonl", cfg.Persistence.Backend)
	require.Equal(t, "dock-in-promise-updated.csv", cfg.Routes.Path)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"http": {"addr": ":7070"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.HTTP.Addr)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", "addr = ':8080'")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadGeometry(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
dock:
  size: 5
  three_pl_start: 7
  three_pl_end: 9
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadPersistenceBackend(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
persistence:
  backend: postgres
`)
	_, err := Load(path)
	require.Error(t, err)
}
