package config

import "fmt"

// WorldConfig fixes the shape of the world.
type WorldConfig struct {
	Seed       int64 `yaml:"seed"`
	ChunkSize  int   `yaml:"chunk_size"`
	LowerLimit int   `yaml:"lower_limit"` // lowest solid global Y (inclusive)
	UpperLimit int   `yaml:"upper_limit"` // global Y ceiling (exclusive)
}

func (w WorldConfig) Validate() error {
	if w.ChunkSize < 1 {
		return fmt.Errorf("world.chunk_size must be positive, got %d", w.ChunkSize)
	}
	if w.UpperLimit <= 0 {
		return fmt.Errorf("world.upper_limit must be positive, got %d", w.UpperLimit)
	}
	if w.LowerLimit >= w.UpperLimit {
		return fmt.Errorf("world.lower_limit (%d) must be below upper_limit (%d)", w.LowerLimit, w.UpperLimit)
	}
	return nil
}

// TerrainConfig names the blocks used for each depth band of a column.
type TerrainConfig struct {
	Surface     string `yaml:"surface"`      // top cell of a column
	Filler      string `yaml:"filler"`       // FillerDepth cells below the surface
	Deep        string `yaml:"deep"`         // everything further down
	FillerDepth int    `yaml:"filler_depth"`
}

func (t TerrainConfig) Validate() error {
	if t.Surface == "" || t.Filler == "" || t.Deep == "" {
		return fmt.Errorf("terrain blocks must all be named")
	}
	if t.FillerDepth < 0 {
		return fmt.Errorf("terrain.filler_depth must not be negative, got %d", t.FillerDepth)
	}
	return nil
}
