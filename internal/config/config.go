// Package config loads the planner configuration from YAML with sensible
// defaults for every field.
package config

import (
	"fmt"
	"os"
	"time"

	"sigs.k8s.io/yaml"
)

// PoolConfig sizes the optimization worker pool.
type PoolConfig struct {
	MinWorkers      int `json:"minWorkers"`
	MaxWorkers      int `json:"maxWorkers"`
	MaxQueue        int `json:"maxQueue"`
	TaskTimeoutSec  int `json:"taskTimeoutSec"`
	IdleTimeoutSec  int `json:"idleTimeoutSec"`
	DrainTimeoutSec int `json:"drainTimeoutSec"`
}

// CutConfig holds the default cutting parameters applied when a request
// leaves them unset.
type CutConfig struct {
	Kerf           int  `json:"kerf"`           // blade width, mm
	MinUsableWaste int  `json:"minUsableWaste"` // remnant threshold, mm
	AllowRotation  bool `json:"allowRotation"`
}

// Config is the full planner configuration.
type Config struct {
	LogLevel    string     `json:"logLevel"`
	WorkersOnly bool       `json:"workersOnly"`
	Pool        PoolConfig `json:"pool"`
	Cut         CutConfig  `json:"cut"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		LogLevel: "info",
		Pool: PoolConfig{
			MinWorkers:      1,
			MaxWorkers:      0, // 0 means runtime.NumCPU()
			MaxQueue:        256,
			TaskTimeoutSec:  60,
			IdleTimeoutSec:  30,
			DrainTimeoutSec: 10,
		},
		Cut: CutConfig{
			Kerf:           3,
			MinUsableWaste: 50,
			AllowRotation:  true,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Pool.MinWorkers < 0 || c.Pool.MaxQueue < 0 {
		return fmt.Errorf("config: pool sizes must not be negative")
	}
	if c.Pool.MaxWorkers != 0 && c.Pool.MaxWorkers < c.Pool.MinWorkers {
		return fmt.Errorf("config: maxWorkers %d below minWorkers %d", c.Pool.MaxWorkers, c.Pool.MinWorkers)
	}
	if c.Cut.Kerf < 0 || c.Cut.Kerf > 20 {
		return fmt.Errorf("config: kerf %d outside 0..20", c.Cut.Kerf)
	}
	if c.Cut.MinUsableWaste < 0 {
		return fmt.Errorf("config: minUsableWaste must not be negative")
	}
	return nil
}

// TaskTimeout returns the pool task timeout as a duration.
func (p PoolConfig) TaskTimeout() time.Duration { return time.Duration(p.TaskTimeoutSec) * time.Second }

// IdleTimeout returns the worker idle timeout as a duration.
func (p PoolConfig) IdleTimeout() time.Duration { return time.Duration(p.IdleTimeoutSec) * time.Second }

// DrainTimeout returns the shutdown drain timeout as a duration.
func (p PoolConfig) DrainTimeout() time.Duration {
	return time.Duration(p.DrainTimeoutSec) * time.Second
}
