package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/jsonui/internal/dispatch"
	"github.com/danielpatrickdp/jsonui/internal/gate"
	"github.com/danielpatrickdp/jsonui/internal/handlers"
)

// Environment overrides.
const (
	EnvState    = "JSONUI_STATE"
	EnvDB       = "JSONUI_DB"
	EnvAddr     = "JSONUI_ADDR"
	EnvLogLevel = "JSONUI_LOG_LEVEL"
)

// #region config
// Action is an external command shown as a button. Window defaults to
// "functions".
type Action struct {
	Name    string   `yaml:"name"`
	Window  string   `yaml:"window,omitempty"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
	Dir     string   `yaml:"dir,omitempty"`
}

// GateSection configures the pre-save document checks.
type GateSection struct {
	MaxDepth        int   `yaml:"max_depth"`
	MaxLeaves       int   `yaml:"max_leaves"`
	RejectNonFinite *bool `yaml:"reject_non_finite,omitempty"`
}

// Config is the editor configuration.
type Config struct {
	StatePath     string        `yaml:"state_path"`
	DBPath        string        `yaml:"db_path"` // empty disables the version store
	RootKey       string        `yaml:"root_key"`
	ListenAddr    string        `yaml:"listen_addr"` // empty disables the state service
	FrameInterval time.Duration `yaml:"frame_interval"`
	Strict        bool          `yaml:"strict"`
	Handlers      []string      `yaml:"handlers,omitempty"`
	Actions       []Action      `yaml:"actions,omitempty"`
	CacheDir      string        `yaml:"cache_dir,omitempty"` // defaults to the state file's directory
	LogLevel      string        `yaml:"log_level"`
	Gate          GateSection   `yaml:"gate"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	def := gate.DefaultGateConfig()
	return Config{
		StatePath:     "state.json",
		RootKey:       "state",
		FrameInterval: 100 * time.Millisecond,
		LogLevel:      "info",
		Gate: GateSection{
			MaxDepth:        def.MaxDepth,
			MaxLeaves:       def.MaxLeaves,
			RejectNonFinite: &def.RejectNonFinite,
		},
	}
}

// #endregion config

// #region load
// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from the JSONUI_* environment variables.
func (c *Config) ApplyEnv() {
	c.StatePath = envOr(EnvState, c.StatePath)
	c.DBPath = envOr(EnvDB, c.DBPath)
	c.ListenAddr = envOr(EnvAddr, c.ListenAddr)
	c.LogLevel = envOr(EnvLogLevel, c.LogLevel)
}

// #endregion load

// #region validate
// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.StatePath == "" {
		errs = append(errs, errors.New("state_path is required"))
	}
	if c.RootKey == "" {
		errs = append(errs, errors.New("root_key is required"))
	}
	if c.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("frame_interval must be positive, got %s", c.FrameInterval))
	}
	if _, err := handlers.Select(c.Handlers); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Gate.MaxDepth < 0 || c.Gate.MaxLeaves < 0 {
		errs = append(errs, errors.New("gate limits must not be negative"))
	}
	seen := make(map[string]bool)
	for i, a := range c.Actions {
		switch {
		case a.Name == "":
			errs = append(errs, fmt.Errorf("actions[%d]: name is required", i))
		case a.Command == "":
			errs = append(errs, fmt.Errorf("action %q: command is required", a.Name))
		case seen[a.Name]:
			errs = append(errs, fmt.Errorf("action %q: duplicate name", a.Name))
		case strings.ContainsAny(a.Name, `/\`) || strings.HasPrefix(a.Name, "_") || strings.HasPrefix(a.Name, "."):
			errs = append(errs, fmt.Errorf("action %q: name must not contain path separators or start with _ or .", a.Name))
		}
		seen[a.Name] = true
	}
	return errors.Join(errs...)
}

// #endregion validate

// #region accessors
// HandlerSet returns the configured handlers in priority order.
func (c Config) HandlerSet() ([]dispatch.Handler, error) {
	return handlers.Select(c.Handlers)
}

// GateConfig converts the gate section.
func (c Config) GateConfig() gate.GateConfig {
	g := gate.GateConfig{MaxDepth: c.Gate.MaxDepth, MaxLeaves: c.Gate.MaxLeaves, RejectNonFinite: true}
	if c.Gate.RejectNonFinite != nil {
		g.RejectNonFinite = *c.Gate.RejectNonFinite
	}
	return g
}

// ResultsDir is where per-action results are cached.
func (c Config) ResultsDir() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	return filepath.Dir(c.StatePath)
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// #endregion accessors

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
