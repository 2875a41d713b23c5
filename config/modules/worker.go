package modules

import (
	"fmt"
)

type Pool struct {
	Size        uint32 `yaml:"size" json:"size" default:"1000"`
	Concurrency uint32 `yaml:"concurrency" json:"concurrency"`
}

type Backoff struct {
	Initial    uint32  `yaml:"initial" json:"initial" default:"1"`
	Max        uint32  `yaml:"max" json:"max" default:"300"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier" default:"2"`
	Jitter     float64 `yaml:"jitter" json:"jitter" default:"0"`
}

type WorkerConfig struct {
	BaseConfig
	Enabled     bool    `yaml:"enabled" json:"enabled" default:"true"`
	MaxAttempts uint32  `yaml:"max_attempts" json:"max_attempts" default:"8" envconfig:"MAX_ATTEMPTS"`
	Backoff     Backoff `yaml:"backoff" json:"backoff"`
	Pool        Pool    `yaml:"pool" json:"pool"`
}

func (cfg *WorkerConfig) Status() string {
	if cfg.Enabled {
		return "on"
	}
	return "off"
}

func (cfg *WorkerConfig) Validate() error {
	if cfg.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if cfg.Backoff.Multiplier < 1 {
		return fmt.Errorf("backoff.multiplier must be >= 1")
	}
	if cfg.Backoff.Jitter < 0 || cfg.Backoff.Jitter > 1 {
		return fmt.Errorf("backoff.jitter must be in the range [0, 1]")
	}
	if cfg.Backoff.Max < cfg.Backoff.Initial {
		return fmt.Errorf("backoff.max must be >= backoff.initial")
	}
	return nil
}
