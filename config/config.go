package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/dockyard/core/dock"
	"github.com/kilianp07/dockyard/core/metrics"
	"github.com/kilianp07/dockyard/infra/mqtt"
)

type Config struct {
	HTTP        HTTPConfig        `json:"http"`
	Dock        dock.Config       `json:"dock"`
	Routes      RoutesConfig      `json:"routes"`
	Persistence PersistenceConfig `json:"persistence"`
	Metrics     metrics.Config    `json:"metrics"`
	MQTT        mqtt.Config       `json:"mqtt"`
}

// HTTPConfig defines the API listener.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":5000"
	}
}

// RoutesConfig locates the route master file.
type RoutesConfig struct {
	Path string `json:"path"`
}

func (c *RoutesConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "dock-in-promise-updated.csv"
	}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("DOCK_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "dock_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.HTTP.SetDefaults()
	cfg.Routes.SetDefaults()
	cfg.Dock.SetDefaults()
	cfg.Persistence.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	if err := cfg.Dock.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Persistence.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
