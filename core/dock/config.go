package dock

import "fmt"

// Config defines the pool geometry and rebalancing cadence.
type Config struct {
	// Size is the number of docks in the pool.
	Size int `json:"size"`
	// ThreePLStart and ThreePLEnd bound the inclusive dock range reserved
	// for 3PL vehicles.
	ThreePLStart int `json:"three_pl_start"`
	ThreePLEnd   int `json:"three_pl_end"`
	// PHCapacity caps concurrent PH occupants on one dock.
	PHCapacity int `json:"ph_capacity"`
	// RebalanceSeconds is the periodic waiting-list sweep interval.
	RebalanceSeconds int `json:"rebalance_seconds"`
}

// SetDefaults applies the production pool layout.
func (c *Config) SetDefaults() {
	if c.Size == 0 {
		c.Size = 10
	}
	if c.ThreePLStart == 0 {
		c.ThreePLStart = 7
	}
	if c.ThreePLEnd == 0 {
		c.ThreePLEnd = 9
	}
	if c.PHCapacity == 0 {
		c.PHCapacity = 2
	}
	if c.RebalanceSeconds == 0 {
		c.RebalanceSeconds = 60
	}
}

// Validate checks the pool geometry.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("size must be positive")
	}
	if c.ThreePLStart < 1 || c.ThreePLEnd > c.Size || c.ThreePLStart > c.ThreePLEnd {
		return fmt.Errorf("3PL zone [%d, %d] outside pool of %d docks", c.ThreePLStart, c.ThreePLEnd, c.Size)
	}
	if c.PHCapacity < 1 {
		return fmt.Errorf("ph_capacity must be at least 1")
	}
	if c.RebalanceSeconds < 1 {
		return fmt.Errorf("rebalance_seconds must be positive")
	}
	return nil
}
