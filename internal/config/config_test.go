package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jsonui.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, "state", cfg.RootKey)
	require.Equal(t, 100*time.Millisecond, cfg.FrameInterval)
	require.True(t, cfg.GateConfig().RejectNonFinite)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
state_path: /tmp/doc.json
db_path: /tmp/doc.db
root_key: root
listen_addr: 127.0.0.1:7070
frame_interval: 250ms
strict: true
handlers: [hidden, scalar, dict, fallback]
log_level: debug
gate:
  max_depth: 8
  reject_non_finite: false
actions:
  - name: render
    command: ./render.sh
    args: [--fast]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "/tmp/doc.json", cfg.StatePath)
	require.Equal(t, "root", cfg.RootKey)
	require.Equal(t, 250*time.Millisecond, cfg.FrameInterval)
	require.True(t, cfg.Strict)
	require.Equal(t, []string{"hidden", "scalar", "dict", "fallback"}, cfg.Handlers)
	require.Len(t, cfg.Actions, 1)
	require.Equal(t, []string{"--fast"}, cfg.Actions[0].Args)

	g := cfg.GateConfig()
	require.Equal(t, 8, g.MaxDepth)
	require.False(t, g.RejectNonFinite)

	hs, err := cfg.HandlerSet()
	require.NoError(t, err)
	require.Len(t, hs, 4)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "DEBUG", cfg.Level().String())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "state_path: from-file.json\nlisten_addr: :1\n")
	t.Setenv(EnvState, "from-env.json")
	t.Setenv(EnvAddr, ":2")
	t.Setenv(EnvDB, "env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env.json", cfg.StatePath)
	require.Equal(t, ":2", cfg.ListenAddr)
	require.Equal(t, "env.db", cfg.DBPath)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "frame_interval: [not, a, duration]\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown handler", func(c *Config) { c.Handlers = []string{"nope"} }},
		{"zero interval", func(c *Config) { c.FrameInterval = 0 }},
		{"empty root", func(c *Config) { c.RootKey = "" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"negative gate", func(c *Config) { c.Gate.MaxDepth = -1 }},
		{"action without command", func(c *Config) { c.Actions = []Action{{Name: "a"}} }},
		{"duplicate action", func(c *Config) {
			c.Actions = []Action{{Name: "a", Command: "x"}, {Name: "a", Command: "y"}}
		}},
		{"action name with separator", func(c *Config) { c.Actions = []Action{{Name: "../a", Command: "x"}} }},
		{"hidden action name", func(c *Config) { c.Actions = []Action{{Name: ".a", Command: "x"}} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestResultsDir(t *testing.T) {
	cfg := Default()
	cfg.StatePath = filepath.Join("data", "state.json")
	require.Equal(t, "data", cfg.ResultsDir())

	cfg.CacheDir = "cache"
	require.Equal(t, "cache", cfg.ResultsDir())
}
