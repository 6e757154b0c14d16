package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Display.PollIntervalSec)
	assert.Equal(t, 5, cfg.Poller.MaxFailures)
	assert.Equal(t, "keyring", cfg.Session.Backend)
	assert.Equal(t, "ffmpeg", cfg.Recorder.Command)
}

func Test_LoadConfig_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  base_url: https://bod.example.com
poller:
  max_failures: 2
server:
  seed:
    - username: sekretaris
      password: rahasia
      name: Sekretaris Perusahaan
      role: SECRETARY
    - username: dewi
      password: rahasia
      name: Dewi Lestari
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://bod.example.com", cfg.API.BaseURL)
	assert.Equal(t, 15, cfg.API.TimeoutSec)
	assert.Equal(t, 2, cfg.Poller.MaxFailures)
	require.Len(t, cfg.Server.Seed, 2)
	assert.Equal(t, RoleSecretary, cfg.Server.Seed[0].Role)
	assert.Equal(t, RoleUnit, cfg.Server.Seed[1].Role)
}

func Test_LoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("BODWATCH_API_BASE_URL", "http://override:9000")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://override:9000", cfg.API.BaseURL)
}

func Test_SaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.API.BaseURL = "http://saved:8080"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://saved:8080", loaded.API.BaseURL)
}
