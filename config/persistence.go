package config

import (
	"fmt"
)

// PersistenceConfig defines settings for the dock movement log.
type PersistenceConfig struct {
	// Backend selects the movement store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the movement store.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *PersistenceConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "dock-movements.log"
	}
}

// Validate checks mandatory fields.
func (c PersistenceConfig) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}
